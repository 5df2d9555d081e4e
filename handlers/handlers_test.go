package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"kryptos-backend/audio"
	"kryptos-backend/config"
	"kryptos-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T, opts ...func(*config.Config)) *gin.Engine {
	t.Helper()
	return newTestRouterWithLogger(t, zap.NewNop(), opts...)
}

func newTestRouterWithLogger(t *testing.T, logger *zap.Logger, opts ...func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         "8080",
			AllowOrigins: []string{"http://localhost:3000"},
			MaxUploadMB:  8,
		},
		Cipher:  config.CipherConfig{DefaultKey: "KRYPTOS", BatchWorkers: 2},
		Carrier: config.CarrierConfig{MinPSNR: 60},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return NewRouter(cfg, logger)
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestEncryptDecrypt(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/cipher/encrypt", models.CipherRequest{Text: "TESTMESSAGE"})
	require.Equal(t, http.StatusOK, w.Code)
	enc := decode[models.CipherResponse](t, w)
	assert.True(t, enc.Success)
	assert.Equal(t, "QMGMIVMBACL", enc.Result)
	assert.Equal(t, "KRYPTOS", enc.Key)
	assert.Empty(t, enc.Stages)

	w = postJSON(t, router, "/api/v1/cipher/decrypt?stages=true", models.CipherRequest{Text: enc.Result, Key: "kryptos"})
	require.Equal(t, http.StatusOK, w.Code)
	dec := decode[models.CipherResponse](t, w)
	assert.Equal(t, "TESTMESSAGE", dec.Result)
	assert.Len(t, dec.Stages, 3)
	assert.Equal(t, dec.Result, dec.Stages[2])
}

func TestEncryptRejectsBadKey(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/cipher/encrypt", models.CipherRequest{Text: "HELLO", Key: "K4!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode[models.CipherResponse](t, w).Success)
}

func TestEncryptRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cipher/encrypt", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEncryptEmptyTextKeepsResult(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/cipher/encrypt", models.CipherRequest{Text: ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"result":""`)
}

func TestPipelineLogsRuneLength(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	router := newTestRouterWithLogger(t, zap.New(core))

	w := postJSON(t, router, "/api/v1/cipher/encrypt", models.CipherRequest{Text: "ÉTÉ À"})
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("pipeline run").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].ContextMap()["length"])
}

func TestMirror(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/cipher/mirror", models.MirrorRequest{Text: "KRYPTOS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HLGKBIP", decode[models.CipherResponse](t, w).Result)
}

func TestVerify(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/cipher/verify", models.CipherRequest{
		Text: "OBKRUOXOGHULBSOLIFBBWFLRVQQPRNGKSSOTWTQSJQSSEKZZWATJKLUDIAWINFBNYPVTTMZFPKWGDKZXTJCDIGKUHUAUEKCAR",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.VerifyResponse](t, w)
	assert.True(t, resp.Match)
	assert.Equal(t, 97, resp.Length)
}

func TestBatch(t *testing.T) {
	router := newTestRouter(t)

	texts := []string{"TESTMESSAGE", "ATTACK AT DAWN", "", "X"}
	w := postJSON(t, router, "/api/v1/cipher/batch", models.BatchRequest{Direction: "encrypt", Texts: texts})
	require.Equal(t, http.StatusOK, w.Code)
	enc := decode[models.BatchResponse](t, w)
	require.Len(t, enc.Results, len(texts))
	assert.Equal(t, "QMGMIVMBACL", enc.Results[0])

	w = postJSON(t, router, "/api/v1/cipher/batch", models.BatchRequest{Direction: "decrypt", Texts: enc.Results})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, texts, decode[models.BatchResponse](t, w).Results)
}

func TestBatchValidation(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/cipher/batch", models.BatchRequest{Direction: "rotate", Texts: []string{"A"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/api/v1/cipher/batch", models.BatchRequest{Direction: "encrypt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossword(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crossword", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.CrosswordResponse](t, w)
	assert.Equal(t, []string{"CHAV", "IFRA", "ENIG", "MAME"}, resp.Horizontal)
}

func testCarrierWAV(t *testing.T) []byte {
	t.Helper()
	samples := make([]int, 4000)
	for i := range samples {
		samples[i] = (i*37)%2000 - 1000
	}
	data, err := audio.NewAudioDecoder().EncodeWAV(samples, &models.AudioMetadata{SampleRate: 8000, Channels: 1})
	require.NoError(t, err)
	return data
}

func multipartRequest(t *testing.T, path, field, filename string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCarrierEmbedExtract(t *testing.T) {
	router := newTestRouter(t)
	fields := map[string]string{"key": "PALIMPSEST", "lsb_bits": "2", "use_random_start": "true"}

	embedFields := map[string]string{"message": "BETWEEN SUBTLE SHADING"}
	for k, v := range fields {
		embedFields[k] = v
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/carrier/embed", "audio_file", "tone.wav", testCarrierWAV(t), embedFields))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tone_carrier.wav")
	assert.NotEmpty(t, w.Header().Get("X-Carrier-PSNR"))
	assert.Equal(t, "true", w.Header().Get("X-Carrier-PSNR-OK"))

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, multipartRequest(t, "/api/v1/carrier/extract", "carrier_file", "tone_carrier.wav", w.Body.Bytes(), fields))
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())

	resp := decode[models.CarrierResponse](t, w2)
	assert.Equal(t, "BETWEEN SUBTLE SHADING", resp.Plaintext)
	assert.NotEmpty(t, resp.Ciphertext)
}

func TestCarrierEmbedFromMP3(t *testing.T) {
	router := newTestRouter(t)
	mp3Data, err := os.ReadFile("../audio/testdata/silence.mp3")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/carrier/embed", "audio_file", "tone.mp3", mp3Data,
		map[string]string{"message": "NORTHEAST"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tone_carrier.wav")

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, multipartRequest(t, "/api/v1/carrier/extract", "carrier_file", "tone_carrier.wav", w.Body.Bytes(), nil))
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())
	assert.Equal(t, "NORTHEAST", decode[models.CarrierResponse](t, w2).Plaintext)
}

func TestCarrierEmbedBelowMinPSNR(t *testing.T) {
	router := newTestRouter(t, func(cfg *config.Config) { cfg.Carrier.MinPSNR = 150 })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/carrier/embed", "audio_file", "tone.wav", testCarrierWAV(t),
		map[string]string{"message": "CLOCK", "lsb_bits": "4"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "false", w.Header().Get("X-Carrier-PSNR-OK"))
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
}

func TestCarrierUploadLimit(t *testing.T) {
	router := newTestRouter(t, func(cfg *config.Config) { cfg.Server.MaxUploadMB = 1 })
	oversized := make([]byte, 2<<20)
	copy(oversized, testCarrierWAV(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/carrier/embed", "audio_file", "tone.wav", oversized,
		map[string]string{"message": "BERLIN"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, decode[models.CarrierResponse](t, w).Success)
}

func TestCarrierExtractClean(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/carrier/extract", "carrier_file", "tone.wav", testCarrierWAV(t), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCarrierValidation(t *testing.T) {
	router := newTestRouter(t)
	wavData := testCarrierWAV(t)

	tests := []struct {
		name     string
		filename string
		fields   map[string]string
	}{
		{name: "bad lsb bits", filename: "tone.wav", fields: map[string]string{"message": "HI", "lsb_bits": "9"}},
		{name: "bad key", filename: "tone.wav", fields: map[string]string{"message": "HI", "key": "K 4"}},
		{name: "missing message", filename: "tone.wav", fields: map[string]string{}},
		{name: "unsupported format", filename: "tone.flac", fields: map[string]string{"message": "HI"}},
		{name: "message too large", filename: "tone.wav", fields: map[string]string{"message": string(bytes.Repeat([]byte("A"), 1000))}},
		{name: "message not utf8", filename: "tone.wav", fields: map[string]string{"message": "CLOCK\xff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, multipartRequest(t, "/api/v1/carrier/embed", "audio_file", tt.filename, wavData, tt.fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, decode[models.CarrierResponse](t, w).Success)
		})
	}
}
