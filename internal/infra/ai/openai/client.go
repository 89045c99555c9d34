package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
	"github.com/bryanwahyu/voicemood/internal/infra/ai/prompt"
)

const maxTokens = 256

const (
	defaultModel              = "gpt-4o-mini"
	defaultSpeechModel        = string(openai.TTSModel1)
	defaultVoice              = string(openai.VoiceAlloy)
	defaultTranscriptionModel = openai.Whisper1
)

type Options struct {
	APIKey             string
	BaseURL            string
	Model              string
	SpeechModel        string
	Voice              string
	TranscriptionModel string
	// Language is an ISO-639-1 hint for transcription, e.g. "en".
	Language string
	Timeout  time.Duration
}

// Client implements the sentiment, synthesis and transcription ports on
// top of the OpenAI API.
type Client struct {
	*openai.Client
	Model              string
	SpeechModel        string
	Voice              string
	TranscriptionModel string
	Language           string
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		Client:             openai.NewClientWithConfig(cfg),
		Model:              opts.Model,
		SpeechModel:        opts.SpeechModel,
		Voice:              opts.Voice,
		TranscriptionModel: opts.TranscriptionModel,
		Language:           opts.Language,
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.SpeechModel == "" {
		c.SpeechModel = defaultSpeechModel
	}
	if c.Voice == "" {
		c.Voice = defaultVoice
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = defaultTranscriptionModel
	}
	return c
}

// providerError turns an API error into ai.ProviderError, tagging 429s
// with ai.ErrQuotaExceeded.
func providerError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		perr := &ai.ProviderError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%s: %w: %w", op, ai.ErrQuotaExceeded, perr)
		}
		return fmt.Errorf("%s: %w", op, perr)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %w", op, ai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (analysis.Score, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSentimentSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetSentimentUserPrompt(text)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.Model, "o1") || strings.HasPrefix(c.Model, "o3") || strings.HasPrefix(c.Model, "o4") || strings.HasPrefix(c.Model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return analysis.Score{}, providerError("failed to create chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return analysis.Score{}, errors.New("chat completion returned no choices")
	}
	return parseScore(resp.Choices[0].Message.Content)
}

// parseScore decodes the model's JSON answer and clamps it into range.
func parseScore(content string) (analysis.Score, error) {
	var out struct {
		Score     *float64 `json:"score"`
		Magnitude *float64 `json:"magnitude"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return analysis.Score{}, fmt.Errorf("failed to decode sentiment answer: %w", err)
	}
	if out.Score == nil {
		return analysis.Score{}, errors.New("sentiment answer has no score")
	}
	s := analysis.Score{Score: math.Max(-1, math.Min(1, *out.Score))}
	if out.Magnitude != nil {
		s.Magnitude = math.Max(0, *out.Magnitude)
	}
	return s, nil
}

func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, providerError("failed to create speech", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech: %w", err)
	}
	return audio, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := c.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.TranscriptionModel,
		FilePath: "audio" + analysis.AudioExt,
		Reader:   bytes.NewReader(audio),
		Language: c.Language,
	})
	if err != nil {
		return "", providerError("failed to create transcription", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ai.ErrNoSpeech
	}
	return text, nil
}
