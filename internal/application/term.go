package application

import (
	"strings"

	"speak-sfx/internal/domain"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// CleanText drops ASCII punctuation, lowercases and splits on whitespace.
func CleanText(text string) []string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, text)
	return strings.Fields(strings.ToLower(stripped))
}

// SelectTerm returns the last word of text. The capture window is cut short on
// purpose, so the last word is the one the speaker was cut off at.
func SelectTerm(text string) (string, error) {
	words := CleanText(text)
	if len(words) == 0 {
		return "", domain.ErrNoValidTokens
	}
	return words[len(words)-1], nil
}
