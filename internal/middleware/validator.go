package middleware

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSynthesisBytes bounds text sent for speech synthesis. The
// text-to-speech API rejects input above 5000 bytes.
const MaxSynthesisBytes = 5000

// SanitizeString removes null bytes and control characters (tabs and
// newlines survive) and trims surrounding space.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateText checks the encoding of user text. Emptiness is left to the
// services so their messages stay consistent.
func ValidateText(text string) error {
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateSynthesisText applies the synthesis length limit on top of
// ValidateText.
func ValidateSynthesisText(text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}
	if len(text) > MaxSynthesisBytes {
		return fmt.Errorf("text is too long (max %d bytes)", MaxSynthesisBytes)
	}
	return nil
}
