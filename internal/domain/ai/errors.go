package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrNoSpeech is returned by a Transcriber when the audio holds no recognizable speech.
	ErrNoSpeech = errors.New("no speech detected")
)

// ProviderError is a failure reported by the provider itself (as opposed to
// a transport error). Message is the provider's own, human-readable text.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}
