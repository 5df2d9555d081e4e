// Package stego hides pipeline ciphertexts in the LSBs of PCM samples
package stego

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"

	"kryptos-backend/crypto"
	"kryptos-backend/models"
)

const (
	HeaderBytes = 6
	MinLSBBits  = 1
	MaxLSBBits  = 4
)

// magic opens every header, followed by the big-endian payload length.
var magic = [2]byte{'K', '4'}

var (
	ErrPayloadTooLarge = errors.New("payload exceeds carrier capacity")
	ErrNoPayload       = errors.New("carrier holds no payload")
)

type LSBSteganography struct {
	config *models.CarrierConfig
}

func NewLSBSteganography(config *models.CarrierConfig) (*LSBSteganography, error) {
	if config.LSBBits < MinLSBBits || config.LSBBits > MaxLSBBits {
		return nil, fmt.Errorf("LSB bits must be between %d and %d, got %d", MinLSBBits, MaxLSBBits, config.LSBBits)
	}
	return &LSBSteganography{config: config}, nil
}

func generateSeed(key string) int64 {
	hash := md5.Sum([]byte(key))
	return int64(binary.BigEndian.Uint64(hash[:8]))
}

// Capacity is the number of payload bytes the samples can carry, excluding
// the header.
func (lsb *LSBSteganography) Capacity(samples []int) int {
	totalBytes := len(samples) * lsb.config.LSBBits / 8
	if totalBytes < HeaderBytes {
		return 0
	}
	return totalBytes - HeaderBytes
}

func (lsb *LSBSteganography) Embed(samples []int, secretData []byte) ([]int, error) {
	capacity := lsb.Capacity(samples)
	if len(secretData) > capacity {
		return nil, fmt.Errorf("%w: %d bytes, capacity: %d bytes", ErrPayloadTooLarge, len(secretData), capacity)
	}

	// Prepare payload: magic + data length + data
	payload := make([]byte, HeaderBytes, HeaderBytes+len(secretData))
	copy(payload, magic[:])
	binary.BigEndian.PutUint32(payload[len(magic):], uint32(len(secretData)))
	payload = append(payload, secretData...)

	bits := bytesToBits(payload)
	positions := lsb.positions(len(samples))

	stegoSamples := make([]int, len(samples))
	copy(stegoSamples, samples)

	mask := (1 << lsb.config.LSBBits) - 1
	for slot := 0; slot*lsb.config.LSBBits < len(bits); slot++ {
		var chunk int
		for j := range lsb.config.LSBBits {
			idx := slot*lsb.config.LSBBits + j
			if idx < len(bits) {
				chunk |= int(bits[idx]) << j
			}
		}

		pos := positions[slot]
		stegoSamples[pos] = (stegoSamples[pos] &^ mask) | chunk
	}

	return stegoSamples, nil
}

func (lsb *LSBSteganography) Extract(samples []int) ([]byte, error) {
	positions := lsb.positions(len(samples))

	readBytes := func(offset, n int) []byte {
		bits := make([]byte, 0, n*8)
		mask := (1 << lsb.config.LSBBits) - 1
		startBit := offset * 8
		for slot := startBit / lsb.config.LSBBits; len(bits) < n*8; slot++ {
			chunk := samples[positions[slot]] & mask
			for j := range lsb.config.LSBBits {
				bit := slot*lsb.config.LSBBits + j
				if bit >= startBit && len(bits) < n*8 {
					bits = append(bits, byte(chunk>>j)&1)
				}
			}
		}
		return bitsToBytes(bits)
	}

	capacity := lsb.Capacity(samples)
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: carrier too small", ErrNoPayload)
	}

	header := readBytes(0, HeaderBytes)
	if header[0] != magic[0] || header[1] != magic[1] {
		return nil, fmt.Errorf("%w: header mismatch", ErrNoPayload)
	}

	dataLen := binary.BigEndian.Uint32(header[len(magic):])
	if int64(dataLen) > int64(capacity) {
		return nil, fmt.Errorf("%w: invalid payload length %d", ErrNoPayload, dataLen)
	}

	return readBytes(HeaderBytes, int(dataLen)), nil
}

// HideMessage encrypts plaintext with the carrier key and embeds the ciphertext.
func (lsb *LSBSteganography) HideMessage(samples []int, plaintext string) ([]int, string, error) {
	ciphertext, err := crypto.Encrypt(plaintext, lsb.config.Key)
	if err != nil {
		return nil, "", err
	}

	stegoSamples, err := lsb.Embed(samples, []byte(ciphertext))
	if err != nil {
		return nil, "", err
	}
	return stegoSamples, ciphertext, nil
}

// RevealMessage extracts the embedded ciphertext and decrypts it with the carrier key.
func (lsb *LSBSteganography) RevealMessage(samples []int) (plaintext, ciphertext string, err error) {
	data, err := lsb.Extract(samples)
	if err != nil {
		return "", "", err
	}

	ciphertext = string(data)
	plaintext, err = crypto.Decrypt(ciphertext, lsb.config.Key)
	if err != nil {
		return "", "", err
	}
	return plaintext, ciphertext, nil
}

// positions lists sample indexes in embedding order. With UseRandomStart the
// order is a permutation seeded from the key, so extraction with the same key
// walks the same samples.
func (lsb *LSBSteganography) positions(n int) []int {
	if lsb.config.UseRandomStart {
		rng := rand.New(rand.NewSource(generateSeed(lsb.config.Key)))
		return rng.Perm(n)
	}

	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return positions
}

func bytesToBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

func bitsToBytes(bits []byte) []byte {
	bytes := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for j := range 8 {
			b = (b << 1) | (bits[i+j] & 1)
		}
		bytes = append(bytes, b)
	}
	return bytes
}
