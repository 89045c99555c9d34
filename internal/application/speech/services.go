package speech

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/voicemood/internal/application"
	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
)

type Service struct {
	Audio       analysis.AudioRepository
	Synthesizer ai.Synthesizer
	Transcriber ai.Transcriber
	Log         *zap.Logger
}

type Transcription struct {
	Transcript    string `json:"transcript"`
	AudioFilename string `json:"audio_filename"`
}

// Synthesize returns MP3 audio for text.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidInput("No text provided")
	}
	audio, err := s.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		s.Log.Warn("speech synthesis failed", zap.Error(err))
		return nil, application.UpstreamError("Error in speech synthesis", err)
	}
	return audio, nil
}

// Transcribe validates the capture, transcribes it, and only then stores
// it. Nothing is stored when validation or transcription fails.
func (s *Service) Transcribe(ctx context.Context, audio []byte) (*Transcription, error) {
	if err := analysis.CheckAudio(audio); err != nil {
		s.Log.Info("rejected audio", zap.Int("bytes", len(audio)), zap.Error(err))
		return nil, err
	}

	s.Log.Debug("sending audio for transcription", zap.Int("bytes", len(audio)))
	transcript, err := s.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, ai.ErrNoSpeech) {
			s.Log.Warn("no speech detected in the audio")
			return nil, apperr.Upstream("No speech detected in the audio", err)
		}
		s.Log.Warn("speech recognition failed", zap.Error(err))
		return nil, application.UpstreamError("Error in speech recognition", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, apperr.Upstream("No speech detected in the audio", ai.ErrNoSpeech)
	}

	name, err := s.Audio.Create(ctx, audio)
	if err != nil {
		return nil, err
	}
	s.Log.Info("speech-to-text conversion successful", zap.String("audio_filename", name))
	return &Transcription{Transcript: transcript, AudioFilename: name}, nil
}

// Recording returns a stored recording.
func (s *Service) Recording(ctx context.Context, filename string) ([]byte, error) {
	return s.Audio.Get(ctx, filename)
}
