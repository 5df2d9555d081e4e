package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"kryptos-backend/audio"
	"kryptos-backend/config"
	"kryptos-backend/crypto"
	"kryptos-backend/models"
	"kryptos-backend/stego"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CarrierHandler struct {
	audioDecoder *audio.AudioDecoder
	defaultKey   string
	maxUpload    int64
	minPSNR      float64
	logger       *zap.Logger
}

func NewCarrierHandler(cfg *config.Config, logger *zap.Logger) *CarrierHandler {
	return &CarrierHandler{
		audioDecoder: audio.NewAudioDecoder(),
		defaultKey:   cfg.Cipher.DefaultKey,
		maxUpload:    cfg.Server.MaxUploadMB << 20,
		minPSNR:      cfg.Carrier.MinPSNR,
		logger:       logger,
	}
}

// EmbedMessage encrypts the message and hides the ciphertext in the uploaded
// carrier. The response body is always a WAV file.
func (h *CarrierHandler) EmbedMessage(c *gin.Context) {
	carrierCfg, ok := h.parseConfig(c)
	if !ok {
		return
	}

	message := c.PostForm("message")
	if message == "" {
		carrierError(c, http.StatusBadRequest, "Message is required")
		return
	}
	if !utf8.ValidString(message) {
		carrierError(c, http.StatusBadRequest, "Message must be valid UTF-8")
		return
	}

	samples, metadata, header, ok := h.readCarrier(c, "audio_file")
	if !ok {
		return
	}

	lsb, err := stego.NewLSBSteganography(carrierCfg)
	if err != nil {
		carrierError(c, http.StatusBadRequest, err.Error())
		return
	}

	capacity := lsb.Capacity(samples)
	stegoSamples, ciphertext, err := lsb.HideMessage(samples, message)
	if err != nil {
		carrierError(c, carrierStatus(err), fmt.Sprintf("Failed to embed message: %v", err))
		return
	}

	wavData, err := h.audioDecoder.EncodeWAV(stegoSamples, metadata)
	if err != nil {
		carrierError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to encode WAV: %v", err))
		return
	}

	psnr := audio.CalculatePSNR(samples, stegoSamples, metadata.BitDepth)
	psnrOK := audio.ValidatePSNR(psnr, h.minPSNR)
	if !psnrOK {
		h.logger.Warn("carrier quality below threshold",
			zap.String("carrier", header.Filename),
			zap.Float64("psnr", psnr),
			zap.Float64("min_psnr", h.minPSNR),
		)
	}
	h.logger.Info("message embedded",
		zap.String("carrier", header.Filename),
		zap.Int("ciphertext_len", len(ciphertext)),
		zap.Int("capacity", capacity),
		zap.Float64("psnr", psnr),
	)

	baseFilename := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	outputFilename := fmt.Sprintf("%s_carrier.wav", baseFilename)

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputFilename))
	c.Header("X-Carrier-Capacity", strconv.Itoa(capacity))
	c.Header("X-Carrier-PSNR", formatPSNR(psnr))
	c.Header("X-Carrier-PSNR-OK", strconv.FormatBool(psnrOK))

	c.Data(http.StatusOK, "audio/wav", wavData)
}

func (h *CarrierHandler) ExtractMessage(c *gin.Context) {
	carrierCfg, ok := h.parseConfig(c)
	if !ok {
		return
	}

	samples, _, _, ok := h.readCarrier(c, "carrier_file")
	if !ok {
		return
	}

	lsb, err := stego.NewLSBSteganography(carrierCfg)
	if err != nil {
		carrierError(c, http.StatusBadRequest, err.Error())
		return
	}

	plaintext, ciphertext, err := lsb.RevealMessage(samples)
	if err != nil {
		carrierError(c, carrierStatus(err), fmt.Sprintf("Failed to extract message: %v", err))
		return
	}

	c.JSON(http.StatusOK, models.CarrierResponse{
		Success:    true,
		Message:    "Message extracted",
		Plaintext:  plaintext,
		Ciphertext: ciphertext,
	})
}

func (h *CarrierHandler) parseConfig(c *gin.Context) (*models.CarrierConfig, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			carrierError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds the %d MB limit", h.maxUpload>>20))
			return nil, false
		}
		carrierError(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return nil, false
	}

	key := c.PostForm("key")
	if key == "" {
		key = h.defaultKey
	}
	if err := crypto.ValidateKey(key); err != nil {
		carrierError(c, http.StatusBadRequest, fmt.Sprintf("Invalid key: %v", err))
		return nil, false
	}

	lsbBits, err := strconv.Atoi(c.DefaultPostForm("lsb_bits", "1"))
	if err != nil || lsbBits < stego.MinLSBBits || lsbBits > stego.MaxLSBBits {
		carrierError(c, http.StatusBadRequest,
			fmt.Sprintf("LSB bits must be between %d and %d", stego.MinLSBBits, stego.MaxLSBBits))
		return nil, false
	}

	return &models.CarrierConfig{
		Key:            key,
		LSBBits:        lsbBits,
		UseRandomStart: c.PostForm("use_random_start") == "true",
	}, true
}

func (h *CarrierHandler) readCarrier(c *gin.Context, field string) ([]int, *models.AudioMetadata, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		carrierError(c, http.StatusBadRequest, fmt.Sprintf("Audio file %q is required", field))
		return nil, nil, nil, false
	}
	defer file.Close()

	if !audio.IsSupported(header.Filename) {
		carrierError(c, http.StatusBadRequest, "Invalid audio file format. Only WAV and MP3 files are supported")
		return nil, nil, nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		carrierError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read audio file: %v", err))
		return nil, nil, nil, false
	}

	samples, metadata, err := h.audioDecoder.Decode(header.Filename, data)
	if err != nil {
		carrierError(c, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to decode audio file: %v", err))
		return nil, nil, nil, false
	}

	return samples, metadata, header, true
}

func carrierError(c *gin.Context, status int, message string) {
	c.JSON(status, models.CarrierResponse{
		Success: false,
		Message: message,
	})
}

func carrierStatus(err error) int {
	switch {
	case errors.Is(err, stego.ErrPayloadTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, stego.ErrNoPayload):
		return http.StatusUnprocessableEntity
	default:
		return statusFor(err)
	}
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
