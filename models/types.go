// Package models contain needed models
package models

// CipherRequest represents the request for encrypting, decrypting or verifying text
type CipherRequest struct {
	Text string `json:"text"`
	Key  string `json:"key" binding:"omitempty,alpha,max=256"`
}

// CipherResponse represents the response of a single pipeline run
type CipherResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Result  string   `json:"result"`
	Key     string   `json:"key,omitempty"`
	Stages  []string `json:"stages,omitempty"`
}

// MirrorRequest represents the request for the mirror transform
type MirrorRequest struct {
	Text string `json:"text"`
}

// VerifyResponse represents the result of decrypting and re-encrypting a ciphertext
type VerifyResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Plaintext   string `json:"plaintext"`
	ReEncrypted string `json:"re_encrypted"`
	Match       bool   `json:"match"`
	Length      int    `json:"length"`
}

// BatchRequest represents many texts run through the pipeline with one key
type BatchRequest struct {
	Direction string   `json:"direction" binding:"required,oneof=encrypt decrypt"`
	Key       string   `json:"key" binding:"omitempty,alpha,max=256"`
	Texts     []string `json:"texts" binding:"required,min=1,max=1000"`
}

// BatchResponse keeps results in request order
type BatchResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Results []string `json:"results,omitempty"`
}

// CrosswordResponse represents the decoded crossword grid
type CrosswordResponse struct {
	Success        bool     `json:"success"`
	Horizontal     []string `json:"horizontal"`
	Vertical       []string `json:"vertical"`
	Interpretation string   `json:"interpretation"`
}

// CarrierResponse represents the response of a carrier operation
type CarrierResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Plaintext  string `json:"plaintext,omitempty"`
	Ciphertext string `json:"ciphertext,omitempty"`
}

// AudioMetadata represents metadata about an audio file
type AudioMetadata struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   float64
	Samples    int
}

// CarrierConfig represents configuration for hiding a ciphertext in audio samples
type CarrierConfig struct {
	Key            string
	UseRandomStart bool
	LSBBits        int
}
