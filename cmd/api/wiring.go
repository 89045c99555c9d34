package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bryanwahyu/voicemood/internal/config"
	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/infra/ai/google"
	"github.com/bryanwahyu/voicemood/internal/infra/ai/openai"
	"github.com/bryanwahyu/voicemood/internal/infra/storage"
)

type buckets struct {
	Results storage.Bucket
	Audio   storage.Bucket
	closers []func()
}

func (b *buckets) Close() {
	for _, c := range b.closers {
		c()
	}
}

// openStorage builds the results and audio buckets for the configured backend.
func openStorage(ctx context.Context, cfg config.Storage) (*buckets, error) {
	switch cfg.Backend {
	case "local":
		results, err := storage.NewLocal(cfg.Local.ResultsDir)
		if err != nil {
			return nil, err
		}
		audio, err := storage.NewLocal(cfg.Local.AudioDir)
		if err != nil {
			return nil, err
		}
		return &buckets{Results: results, Audio: audio}, nil

	case "minio":
		m := cfg.Minio
		client, err := storage.NewMinioClient(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return &buckets{
			Results: storage.NewMinioBucket(client, m.BucketName, "sentiment_results"),
			Audio:   storage.NewMinioBucket(client, m.BucketName, "audio_files"),
		}, nil

	case "nats":
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("voicemood"))
		if err != nil {
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("nats jetstream: %w", err)
		}
		results, err := storage.NewNats(js, cfg.NATS.ResultsBucket)
		if err != nil {
			nc.Close()
			return nil, err
		}
		audio, err := storage.NewNats(js, cfg.NATS.AudioBucket)
		if err != nil {
			nc.Close()
			return nil, err
		}
		return &buckets{Results: results, Audio: audio, closers: []func(){nc.Close}}, nil

	case "redis":
		client, err := storage.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		return &buckets{
			Results: storage.NewRedisBucket(client, cfg.Redis.ResultsPrefix),
			Audio:   storage.NewRedisBucket(client, cfg.Redis.AudioPrefix),
			closers: []func(){func() { client.Close() }},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// provider is one client serving all three capabilities.
type provider interface {
	ai.SentimentAnalyzer
	ai.Synthesizer
	ai.Transcriber
}

// newProvider builds the configured client. Clients holding connections
// also implement io.Closer.
func newProvider(ctx context.Context, cfg config.AI) (provider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "google":
		g := cfg.Google
		return google.NewClient(ctx, google.Options{
			APIKey:               g.APIKey,
			LanguageCode:         g.LanguageCode,
			VoiceGender:          g.VoiceGender,
			SampleRateHertz:      g.SampleRateHertz,
			LanguageEndpoint:     g.LanguageEndpoint,
			TextToSpeechEndpoint: g.TextToSpeechEndpoint,
			SpeechEndpoint:       g.SpeechEndpoint,
			Timeout:              timeout,
		})
	case "openai":
		o := cfg.OpenAI
		return openai.NewClient(openai.Options{
			APIKey:             o.APIKey,
			BaseURL:            o.BaseURL,
			Model:              o.Model,
			SpeechModel:        o.SpeechModel,
			Voice:              o.Voice,
			TranscriptionModel: o.TranscriptionModel,
			Language:           o.Language,
			Timeout:            timeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}
