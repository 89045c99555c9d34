// Package google calls Cloud Natural Language, Text-to-Speech and
// Speech-to-Text through the Cloud client libraries.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	language "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"
	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
)

const providerName = "google"

// Error messages.
const (
	errFailedToCreateLanguage = "failed to create language client: %w"
	errFailedToCreateTTS      = "failed to create text-to-speech client: %w"
	errFailedToCreateSpeech   = "failed to create speech client: %w"
)

type Options struct {
	APIKey          string
	LanguageCode    string
	VoiceGender     string
	SampleRateHertz int
	// Endpoint overrides (host:port); empty uses the public endpoints.
	LanguageEndpoint     string
	TextToSpeechEndpoint string
	SpeechEndpoint       string
	Timeout              time.Duration
}

type Client struct {
	language *language.Client
	tts      *texttospeech.Client
	speech   *speech.Client

	languageCode    string
	voiceGender     texttospeechpb.SsmlVoiceGender
	sampleRateHertz int32
	timeout         time.Duration
}

// NewClient dials the three services. extra is appended to every client's
// options after the API key and endpoint.
func NewClient(ctx context.Context, opts Options, extra ...option.ClientOption) (*Client, error) {
	c := &Client{
		languageCode:    opts.LanguageCode,
		sampleRateHertz: int32(opts.SampleRateHertz),
		timeout:         opts.Timeout,
	}
	if c.languageCode == "" {
		c.languageCode = "en-US"
	}
	if c.sampleRateHertz == 0 {
		c.sampleRateHertz = 48000
	}
	if c.timeout == 0 {
		c.timeout = 60 * time.Second
	}
	gender := strings.ToUpper(opts.VoiceGender)
	if gender == "" {
		gender = "NEUTRAL"
	}
	c.voiceGender = texttospeechpb.SsmlVoiceGender(texttospeechpb.SsmlVoiceGender_value[gender])

	clientOpts := func(endpoint string) []option.ClientOption {
		var o []option.ClientOption
		if opts.APIKey != "" {
			o = append(o, option.WithAPIKey(opts.APIKey))
		}
		if endpoint != "" {
			o = append(o, option.WithEndpoint(endpoint))
		}
		return append(o, extra...)
	}

	var err error
	if c.language, err = language.NewClient(ctx, clientOpts(opts.LanguageEndpoint)...); err != nil {
		return nil, fmt.Errorf(errFailedToCreateLanguage, err)
	}
	if c.tts, err = texttospeech.NewClient(ctx, clientOpts(opts.TextToSpeechEndpoint)...); err != nil {
		c.language.Close()
		return nil, fmt.Errorf(errFailedToCreateTTS, err)
	}
	if c.speech, err = speech.NewClient(ctx, clientOpts(opts.SpeechEndpoint)...); err != nil {
		c.language.Close()
		c.tts.Close()
		return nil, fmt.Errorf(errFailedToCreateSpeech, err)
	}
	return c, nil
}

func (c *Client) Close() error {
	return errors.Join(c.language.Close(), c.tts.Close(), c.speech.Close())
}

// httpStatus follows the google.rpc.Code to HTTP mapping.
var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Canceled:           499,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
}

// providerError turns a status error into *ai.ProviderError. Resource
// exhaustion also matches ai.ErrQuotaExceeded. Other errors pass through.
func providerError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	code, known := httpStatus[st.Code()]
	if !known {
		code = http.StatusInternalServerError
	}
	perr := &ai.ProviderError{Provider: providerName, StatusCode: code, Message: st.Message()}
	if st.Code() == codes.ResourceExhausted {
		return fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, perr)
	}
	return perr
}

func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (analysis.Score, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.language.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{
		Document: &languagepb.Document{
			Type:   languagepb.Document_PLAIN_TEXT,
			Source: &languagepb.Document_Content{Content: text},
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return analysis.Score{}, providerError("analyze sentiment", err)
	}
	s := resp.GetDocumentSentiment()
	return analysis.Score{
		Score:     float64(s.GetScore()),
		Magnitude: float64(s.GetMagnitude()),
	}, nil
}

// Synthesize returns MP3 audio in the configured language and voice gender.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.tts.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: c.languageCode,
			SsmlGender:   c.voiceGender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, providerError("synthesize speech", err)
	}
	return resp.GetAudioContent(), nil
}

// Transcribe expects Opus-in-WebM at the configured sample rate and
// returns the top alternative of the first result.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.speech.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_WEBM_OPUS,
			SampleRateHertz: c.sampleRateHertz,
			LanguageCode:    c.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", providerError("recognize speech", err)
	}
	results := resp.GetResults()
	if len(results) == 0 || len(results[0].GetAlternatives()) == 0 {
		return "", ai.ErrNoSpeech
	}
	return results[0].GetAlternatives()[0].GetTranscript(), nil
}
