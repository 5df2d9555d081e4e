// Package crypto contains the double Vigenère pipeline and its building blocks
package crypto

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	AlphabetSz = len(Alphabet)
	DefaultKey = "KRYPTOS"
)

// ErrInvalidKey is returned for keys that cannot drive the cipher.
var ErrInvalidKey = errors.New("invalid key")

// LetterVigenere is a keyed additive substitution over A-Z.
type LetterVigenere struct {
	shifts []int
}

func NewLetterVigenere(key string) (*LetterVigenere, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	shifts := make([]int, 0, len(key))
	for _, r := range key {
		shifts = append(shifts, letterIndex(r))
	}

	return &LetterVigenere{shifts: shifts}, nil
}

// Encrypt shifts every letter forward by the key letter at the same absolute
// position. Non-letters are copied and still consume a key position.
func (lv *LetterVigenere) Encrypt(plaintext string) string {
	return lv.apply(plaintext, 1)
}

func (lv *LetterVigenere) Decrypt(ciphertext string) string {
	return lv.apply(ciphertext, -1)
}

func (lv *LetterVigenere) apply(text string, sign int) string {
	if text == "" {
		return ""
	}

	var out strings.Builder
	out.Grow(len(text))

	keyLen := len(lv.shifts)
	i := 0
	for _, char := range text {
		if isLetter(char) {
			p := letterIndex(char)
			k := lv.shifts[i%keyLen]
			c := ((p+sign*k)%AlphabetSz + AlphabetSz) % AlphabetSz
			out.WriteByte(Alphabet[c])
		} else {
			out.WriteRune(char)
		}
		i++
	}

	return out.String()
}

// EncryptLetters runs a single Vigenère pass with key.
func EncryptLetters(message, key string) (string, error) {
	lv, err := NewLetterVigenere(key)
	if err != nil {
		return "", err
	}
	return lv.Encrypt(message), nil
}

// DecryptLetters undoes EncryptLetters for the same key.
func DecryptLetters(ciphertext, key string) (string, error) {
	lv, err := NewLetterVigenere(key)
	if err != nil {
		return "", err
	}
	return lv.Decrypt(ciphertext), nil
}

// ValidateKey validates if the key is suitable for the letter cipher
func ValidateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for pos, r := range key {
		if !isLetter(r) {
			return fmt.Errorf("%w: non-letter %q at offset %d", ErrInvalidKey, r, pos)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// letterIndex assumes isLetter(r).
func letterIndex(r rune) int {
	if r >= 'a' {
		return int(r - 'a')
	}
	return int(r - 'A')
}
