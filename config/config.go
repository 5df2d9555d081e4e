// Package config loads service settings from file and environment
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"kryptos-backend/crypto"
)

const EnvPrefix = "KRYPTOS"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cipher  CipherConfig  `mapstructure:"cipher"`
	Carrier CarrierConfig `mapstructure:"carrier"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port" validate:"required,numeric"`
	AllowOrigins []string `mapstructure:"allow_origins" validate:"min=1,dive,required,origin"`
	MaxUploadMB  int64    `mapstructure:"max_upload_mb" validate:"min=1,max=512"`
}

type CipherConfig struct {
	DefaultKey   string `mapstructure:"default_key" validate:"required,alpha,max=256"`
	BatchWorkers int    `mapstructure:"batch_workers" validate:"min=1,max=64"`
}

type CarrierConfig struct {
	// MinPSNR is the quality floor in dB below which an embed is flagged.
	MinPSNR float64 `mapstructure:"min_psnr" validate:"min=0"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("cipher.default_key", crypto.DefaultKey)
	v.SetDefault("cipher.batch_workers", 4)
	v.SetDefault("carrier.min_psnr", 60.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Load reads path, or config.yaml from the working directory when path is
// empty. A missing default file is not an error; env vars still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	validate := validator.New()
	if err := validate.RegisterValidation("origin", validOrigin); err != nil {
		return nil, fmt.Errorf("failed to register origin validator: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validOrigin accepts what gin-contrib/cors accepts: a wildcard pattern or an
// http(s) origin.
func validOrigin(fl validator.FieldLevel) bool {
	origin := fl.Field().String()
	return strings.Contains(origin, "*") ||
		strings.HasPrefix(origin, "http://") ||
		strings.HasPrefix(origin, "https://")
}
