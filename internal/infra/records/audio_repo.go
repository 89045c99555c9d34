package records

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
	"github.com/bryanwahyu/voicemood/internal/infra/storage"
)

// AudioStore persists recorded audio under generated <uuid>.webm names.
type AudioStore struct {
	bucket storage.Bucket
}

func NewAudioStore(bucket storage.Bucket) *AudioStore {
	return &AudioStore{bucket: bucket}
}

func (s *AudioStore) Create(ctx context.Context, data []byte) (string, error) {
	if err := analysis.CheckAudio(data); err != nil {
		return "", err
	}
	name := uuid.New().String() + analysis.AudioExt
	if err := s.bucket.Put(ctx, name, data, "audio/webm"); err != nil {
		return "", apperr.Storage("save audio", err)
	}
	return name, nil
}

func (s *AudioStore) Get(ctx context.Context, filename string) ([]byte, error) {
	if !analysis.ValidAudioFilename(filename) {
		return nil, apperr.InvalidInput("Invalid audio filename")
	}
	data, err := s.bucket.Get(ctx, filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.NotFound("Audio file not found")
		}
		return nil, apperr.Storage("load audio", err)
	}
	return data, nil
}

// Exists checks presence without reading the recording. Invalid names
// are reported as absent.
func (s *AudioStore) Exists(ctx context.Context, filename string) (bool, error) {
	if !analysis.ValidAudioFilename(filename) {
		return false, nil
	}
	ok, err := s.bucket.Exists(ctx, filename)
	if err != nil {
		return false, apperr.Storage("stat audio", err)
	}
	return ok, nil
}
