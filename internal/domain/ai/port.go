package ai

import (
	"context"

	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
)

// SentimentAnalyzer scores plain text. Score is in [-1, 1], Magnitude >= 0.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (analysis.Score, error)
}

// Synthesizer turns text into MP3 audio using a fixed voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns Opus-in-WebM (48 kHz) audio into its best transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
