package analysis

import (
	"regexp"

	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
)

const (
	// MinAudioBytes rejects empty or truncated captures.
	MinAudioBytes = 128
	AudioExt      = ".webm"
)

var audioNameRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\.webm$`)

// ValidAudioFilename reports whether name has the shape of a generated
// audio filename. Anything with separators or parent segments fails.
func ValidAudioFilename(name string) bool {
	return audioNameRe.MatchString(name)
}

// CheckAudio validates a capture before it is transcribed or stored.
func CheckAudio(data []byte) error {
	if len(data) == 0 {
		return apperr.InvalidInput("Empty audio file")
	}
	if len(data) < MinAudioBytes {
		return apperr.InvalidInput("Audio content too small, possibly corrupted")
	}
	return nil
}
