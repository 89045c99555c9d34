package analysis

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/voicemood/internal/application"
	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	domain "github.com/bryanwahyu/voicemood/internal/domain/analysis"
	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
)

type Service struct {
	Results  domain.ResultRepository
	Audio    domain.AudioRepository
	Analyzer ai.SentimentAnalyzer
	Log      *zap.Logger
}

// Outcome is what an analysis returns to the caller.
type Outcome struct {
	Sentiment domain.Sentiment `json:"sentiment"`
	Score     float64          `json:"score"`
	Magnitude float64          `json:"magnitude"`
	ResultID  string           `json:"result_id"`
}

// AnalyzeText scores typed text and stores the result without audio.
func (s *Service) AnalyzeText(ctx context.Context, text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidInput("No text provided")
	}
	return s.analyze(ctx, text, nil)
}

// AnalyzeSpeech scores a transcript. audioFilename is optional; when given
// it must name a stored recording.
func (s *Service) AnalyzeSpeech(ctx context.Context, transcript, audioFilename string) (*Outcome, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperr.InvalidInput("No transcript provided")
	}

	var ref *string
	if audioFilename != "" {
		ok, err := s.Audio.Exists(ctx, audioFilename)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.InvalidInput("Audio file not found")
		}
		ref = &audioFilename
	}
	return s.analyze(ctx, transcript, ref)
}

func (s *Service) analyze(ctx context.Context, text string, audioFilename *string) (*Outcome, error) {
	score, err := s.Analyzer.AnalyzeSentiment(ctx, text)
	if err != nil {
		s.Log.Warn("sentiment analysis failed", zap.Error(err))
		return nil, application.UpstreamError("Error in sentiment analysis", err)
	}

	sentiment := domain.Label(score.Score)
	id, err := s.Results.Create(ctx, text, sentiment, score.Score, score.Magnitude, audioFilename)
	if err != nil {
		return nil, err
	}

	s.Log.Info("analysis stored",
		zap.String("result_id", id),
		zap.String("sentiment", string(sentiment)),
		zap.Float64("score", score.Score),
		zap.Bool("speech", audioFilename != nil),
	)
	return &Outcome{
		Sentiment: sentiment,
		Score:     score.Score,
		Magnitude: score.Magnitude,
		ResultID:  id,
	}, nil
}

// History returns every stored result, newest first.
func (s *Service) History(ctx context.Context) ([]*domain.Result, error) {
	results, err := s.Results.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (s *Service) Result(ctx context.Context, id string) (*domain.Result, error) {
	return s.Results.Get(ctx, id)
}
