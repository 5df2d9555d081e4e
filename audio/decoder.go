// Package audio turns carrier files into PCM samples and back
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"kryptos-backend/models"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tosone/minimp3"
)

const (
	BitDepth16   = 16
	PCMFormatTag = 1
)

type AudioDecoder struct{}

func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// IsSupported reports whether filename has a carrier extension we can decode.
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".mp3":
		return true
	}
	return false
}

// Decode dispatches on the file extension.
func (ad *AudioDecoder) Decode(filename string, data []byte) ([]int, *models.AudioMetadata, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return ad.DecodeWAV(data)
	case ".mp3":
		return ad.DecodeMP3(data)
	}
	return nil, nil, fmt.Errorf("unsupported audio format: %q", filepath.Ext(filename))
}

func (ad *AudioDecoder) DecodeWAV(wavData []byte) ([]int, *models.AudioMetadata, error) {
	decoder := wav.NewDecoder(bytes.NewReader(wavData))
	if !decoder.IsValidFile() {
		return nil, nil, fmt.Errorf("failed to decode WAV: invalid file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	if int(decoder.BitDepth) != BitDepth16 {
		return nil, nil, fmt.Errorf("unsupported WAV bit depth %d, only 16-bit PCM is supported", decoder.BitDepth)
	}

	metadata := newMetadata(int(decoder.SampleRate), int(decoder.NumChans), len(buf.Data))
	return buf.Data, metadata, nil
}

func (ad *AudioDecoder) DecodeMP3(mp3Data []byte) ([]int, *models.AudioMetadata, error) {
	if len(mp3Data) == 0 {
		return nil, nil, fmt.Errorf("failed to decode MP3: empty file")
	}
	decoder, data, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	defer decoder.Close()

	if decoder.Channels == 0 || decoder.SampleRate == 0 {
		return nil, nil, fmt.Errorf("failed to decode MP3: no audio frames")
	}

	// minimp3 yields interleaved little-endian 16-bit PCM
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}

	metadata := newMetadata(decoder.SampleRate, decoder.Channels, len(samples))
	return samples, metadata, nil
}

// EncodeWAV writes 16-bit PCM samples as a WAV file.
func (ad *AudioDecoder) EncodeWAV(samples []int, metadata *models.AudioMetadata) ([]byte, error) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: metadata.Channels,
			SampleRate:  metadata.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: BitDepth16,
	}

	// wav.NewEncoder needs a WriteSeeker
	tempFile, err := os.CreateTemp("", "carrier_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	encoder := wav.NewEncoder(tempFile, metadata.SampleRate, BitDepth16, metadata.Channels, PCMFormatTag)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close WAV encoder: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV file: %w", err)
	}
	wavData, err := io.ReadAll(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %w", err)
	}

	return wavData, nil
}

func newMetadata(sampleRate, channels, samples int) *models.AudioMetadata {
	var duration float64
	if sampleRate > 0 && channels > 0 {
		duration = float64(samples/channels) / float64(sampleRate)
	}
	return &models.AudioMetadata{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   BitDepth16,
		Duration:   duration,
		Samples:    samples,
	}
}
