package records

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/voicemood/internal/application"
	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
	"github.com/bryanwahyu/voicemood/internal/infra/storage"
)

const resultExt = ".json"

// ResultStore persists analysis results as one JSON object per id.
type ResultStore struct {
	bucket storage.Bucket
	clock  application.Clock
	log    *zap.Logger
}

func NewResultStore(bucket storage.Bucket, clock application.Clock, log *zap.Logger) *ResultStore {
	return &ResultStore{bucket: bucket, clock: clock, log: log.Named("results")}
}

func (s *ResultStore) Create(ctx context.Context, text string, sentiment analysis.Sentiment, score, magnitude float64, audioFilename *string) (string, error) {
	r := &analysis.Result{
		ID:            uuid.New().String(),
		Text:          text,
		Sentiment:     sentiment,
		Score:         score,
		Magnitude:     magnitude,
		AudioFilename: audioFilename,
		CreatedAt:     s.clock.Now(),
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", apperr.Storage("encode result", err)
	}
	if err := s.bucket.Put(ctx, r.ID+resultExt, data, "application/json"); err != nil {
		return "", apperr.Storage("save result", err)
	}
	return r.ID, nil
}

func (s *ResultStore) Get(ctx context.Context, id string) (*analysis.Result, error) {
	// only generated ids can exist; anything else never reaches storage
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Result not found")
	}
	data, err := s.bucket.Get(ctx, id+resultExt)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.NotFound("Result not found")
		}
		return nil, apperr.Storage("load result", err)
	}
	var r analysis.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, apperr.Storage("decode result", err)
	}
	return &r, nil
}

// List returns every decodable record. Records that fail to load or decode
// are logged and skipped so one bad file does not hide the rest.
func (s *ResultStore) List(ctx context.Context) ([]*analysis.Result, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		return nil, apperr.Storage("list results", err)
	}

	out := make([]*analysis.Result, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, resultExt) {
			continue
		}
		data, err := s.bucket.Get(ctx, key)
		if err != nil {
			s.log.Warn("skipping unreadable result", zap.String("key", key), zap.Error(err))
			continue
		}
		var r analysis.Result
		if err := json.Unmarshal(data, &r); err != nil {
			s.log.Warn("skipping malformed result", zap.String("key", key), zap.Error(err))
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}
