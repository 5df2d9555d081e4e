package crypto

// Direction selects which way the pipeline runs.
type Direction string

const (
	DirectionEncrypt Direction = "encrypt"
	DirectionDecrypt Direction = "decrypt"
)

// DoubleVigenere composes Vigenère -> Mirror -> Vigenère under one key.
type DoubleVigenere struct {
	letters *LetterVigenere
}

func NewDoubleVigenere(key string) (*DoubleVigenere, error) {
	lv, err := NewLetterVigenere(key)
	if err != nil {
		return nil, err
	}
	return &DoubleVigenere{letters: lv}, nil
}

func (dv *DoubleVigenere) Encrypt(plaintext string) string {
	return dv.Stages(plaintext, DirectionEncrypt)[2]
}

func (dv *DoubleVigenere) Decrypt(ciphertext string) string {
	return dv.Stages(ciphertext, DirectionDecrypt)[2]
}

// Stages returns the output of each of the three passes in order.
func (dv *DoubleVigenere) Stages(text string, dir Direction) [3]string {
	pass := dv.letters.Encrypt
	if dir == DirectionDecrypt {
		pass = dv.letters.Decrypt
	}

	var stages [3]string
	stages[0] = pass(text)
	// Not an inverse: Mirror undoes itself.
	stages[1] = Mirror(stages[0])
	stages[2] = pass(stages[1])
	return stages
}

func Encrypt(plaintext, key string) (string, error) {
	dv, err := NewDoubleVigenere(key)
	if err != nil {
		return "", err
	}
	return dv.Encrypt(plaintext), nil
}

func Decrypt(ciphertext, key string) (string, error) {
	dv, err := NewDoubleVigenere(key)
	if err != nil {
		return "", err
	}
	return dv.Decrypt(ciphertext), nil
}

// Verification is the outcome of decrypting a ciphertext and encrypting the
// result again.
type Verification struct {
	Ciphertext  string
	Plaintext   string
	ReEncrypted string
	Match       bool
	Length      int
}

// Verify checks that ciphertext survives a decrypt/encrypt cycle under key.
// Letters are compared case-insensitively since the cipher emits uppercase.
func Verify(ciphertext, key string) (*Verification, error) {
	dv, err := NewDoubleVigenere(key)
	if err != nil {
		return nil, err
	}

	plaintext := dv.Decrypt(ciphertext)
	reEncrypted := dv.Encrypt(plaintext)

	return &Verification{
		Ciphertext:  ciphertext,
		Plaintext:   plaintext,
		ReEncrypted: reEncrypted,
		Match:       reEncrypted == normalize(ciphertext),
		Length:      len([]rune(plaintext)),
	}, nil
}

func normalize(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		if r >= 'a' && r <= 'z' {
			runes[i] = r - 'a' + 'A'
		}
	}
	return string(runes)
}
