package handlers

import (
	"kryptos-backend/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the API routes onto a fresh gin engine.
func NewRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"X-Carrier-PSNR", "X-Carrier-PSNR-OK", "X-Carrier-Capacity", "Content-Disposition", RequestIDHeader}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	cipherHandler := NewCipherHandler(cfg.Cipher.DefaultKey, cfg.Cipher.BatchWorkers, logger)
	carrierHandler := NewCarrierHandler(cfg, logger)

	// API Routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", cipherHandler.HealthCheck)
		api.GET("/crossword", cipherHandler.Crossword)

		cipher := api.Group("/cipher")
		{
			cipher.POST("/encrypt", cipherHandler.Encrypt)
			cipher.POST("/decrypt", cipherHandler.Decrypt)
			cipher.POST("/mirror", cipherHandler.Mirror)
			cipher.POST("/verify", cipherHandler.Verify)
			cipher.POST("/batch", cipherHandler.Batch)
		}

		carrier := api.Group("/carrier")
		{
			carrier.POST("/embed", carrierHandler.EmbedMessage)
			carrier.POST("/extract", carrierHandler.ExtractMessage)
		}
	}

	return router
}
