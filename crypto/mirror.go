package crypto

import "strings"

// atbash maps index i to 25-i. Filled once at init and never written again.
var atbash [AlphabetSz]byte

func init() {
	for i := range AlphabetSz {
		atbash[i] = Alphabet[AlphabetSz-1-i]
	}
}

// Mirror reverses text and replaces every letter with its Atbash complement.
// Mirror is its own inverse, so the pipeline applies it unchanged in both
// directions.
func Mirror(text string) string {
	runes := []rune(text)

	var out strings.Builder
	out.Grow(len(text))

	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if isLetter(r) {
			out.WriteByte(atbash[letterIndex(r)])
			continue
		}
		out.WriteRune(r)
	}

	return out.String()
}
