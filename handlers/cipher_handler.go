// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"kryptos-backend/crossword"
	"kryptos-backend/crypto"
	"kryptos-backend/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type CipherHandler struct {
	defaultKey   string
	batchWorkers int
	logger       *zap.Logger
}

func NewCipherHandler(defaultKey string, batchWorkers int, logger *zap.Logger) *CipherHandler {
	if batchWorkers < 1 {
		batchWorkers = 1
	}
	return &CipherHandler{
		defaultKey:   defaultKey,
		batchWorkers: batchWorkers,
		logger:       logger,
	}
}

func (h *CipherHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Kryptos cipher API is running",
		"version": "1.0.0",
	})
}

func (h *CipherHandler) Encrypt(c *gin.Context) {
	h.run(c, crypto.DirectionEncrypt)
}

func (h *CipherHandler) Decrypt(c *gin.Context) {
	h.run(c, crypto.DirectionDecrypt)
}

func (h *CipherHandler) run(c *gin.Context, dir crypto.Direction) {
	var req models.CipherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.CipherResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	key := h.keyOrDefault(req.Key)
	dv, err := crypto.NewDoubleVigenere(key)
	if err != nil {
		c.JSON(statusFor(err), models.CipherResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid key: %v", err),
		})
		return
	}

	stages := dv.Stages(req.Text, dir)
	h.logger.Debug("pipeline run",
		zap.String("direction", string(dir)),
		zap.Int("length", utf8.RuneCountInString(req.Text)),
	)

	resp := models.CipherResponse{
		Success: true,
		Message: fmt.Sprintf("Text %sed", dir),
		Result:  stages[2],
		Key:     key,
	}
	if c.Query("stages") == "true" {
		resp.Stages = stages[:]
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CipherHandler) Mirror(c *gin.Context) {
	var req models.MirrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.CipherResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, models.CipherResponse{
		Success: true,
		Message: "Text mirrored",
		Result:  crypto.Mirror(req.Text),
	})
}

func (h *CipherHandler) Verify(c *gin.Context) {
	var req models.CipherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.VerifyResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	v, err := crypto.Verify(req.Text, h.keyOrDefault(req.Key))
	if err != nil {
		c.JSON(statusFor(err), models.VerifyResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid key: %v", err),
		})
		return
	}

	if !v.Match {
		h.logger.Warn("re-encryption mismatch", zap.Int("length", v.Length))
	}

	c.JSON(http.StatusOK, models.VerifyResponse{
		Success:     true,
		Message:     fmt.Sprintf("Characters verified: %d", v.Length),
		Plaintext:   v.Plaintext,
		ReEncrypted: v.ReEncrypted,
		Match:       v.Match,
		Length:      v.Length,
	})
}

// Batch runs every text through the pipeline on a bounded set of goroutines.
// Results keep request order.
func (h *CipherHandler) Batch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.BatchResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	dv, err := crypto.NewDoubleVigenere(h.keyOrDefault(req.Key))
	if err != nil {
		c.JSON(statusFor(err), models.BatchResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid key: %v", err),
		})
		return
	}

	transform := dv.Encrypt
	if crypto.Direction(req.Direction) == crypto.DirectionDecrypt {
		transform = dv.Decrypt
	}

	results := make([]string, len(req.Texts))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(h.batchWorkers)
	for i, text := range req.Texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = transform(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.BatchResponse{
			Success: false,
			Message: fmt.Sprintf("Batch aborted: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, models.BatchResponse{
		Success: true,
		Message: fmt.Sprintf("%d texts %sed", len(results), req.Direction),
		Results: results,
	})
}

func (h *CipherHandler) Crossword(c *gin.Context) {
	sol := crossword.NewSolver().Solve()
	c.JSON(http.StatusOK, models.CrosswordResponse{
		Success:        true,
		Horizontal:     sol.Horizontal,
		Vertical:       sol.Vertical,
		Interpretation: sol.Interpretation,
	})
}

func (h *CipherHandler) keyOrDefault(key string) string {
	if key == "" {
		return h.defaultKey
	}
	return key
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, crypto.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
