package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Host                string `yaml:"host" toml:"host"`
	Port                int    `yaml:"port" toml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" toml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds" toml:"idle_timeout_seconds"`
	// StaticDir, when set, is served under /static and may hold index.html.
	StaticDir      string `yaml:"static_dir" toml:"static_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
}

type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // console | json
}

type Local struct {
	ResultsDir string `yaml:"results_dir" toml:"results_dir"`
	AudioDir   string `yaml:"audio_dir" toml:"audio_dir"`
}

type Minio struct {
	Endpoint   string `yaml:"endpoint" toml:"endpoint"`
	AccessKey  string `yaml:"access_key" toml:"access_key"`
	SecretKey  string `yaml:"secret_key" toml:"secret_key"`
	BucketName string `yaml:"bucket_name" toml:"bucket_name"`
	Region     string `yaml:"region" toml:"region"`
	UseSSL     bool   `yaml:"use_ssl" toml:"use_ssl"`
}

type NATS struct {
	URL           string `yaml:"url" toml:"url"`
	ResultsBucket string `yaml:"results_bucket" toml:"results_bucket"`
	AudioBucket   string `yaml:"audio_bucket" toml:"audio_bucket"`
}

type Redis struct {
	URL           string `yaml:"url" toml:"url"`
	ResultsPrefix string `yaml:"results_prefix" toml:"results_prefix"`
	AudioPrefix   string `yaml:"audio_prefix" toml:"audio_prefix"`
}

// Storage selects the blob backend for results and audio.
type Storage struct {
	Backend string `yaml:"backend" toml:"backend"` // local | minio | nats | redis
	Local   Local  `yaml:"local" toml:"local"`
	Minio   Minio  `yaml:"minio" toml:"minio"`
	NATS    NATS   `yaml:"nats" toml:"nats"`
	Redis   Redis  `yaml:"redis" toml:"redis"`
}

type Google struct {
	APIKey          string `yaml:"api_key" toml:"api_key"`
	LanguageCode    string `yaml:"language_code" toml:"language_code"`
	VoiceGender     string `yaml:"voice_gender" toml:"voice_gender"`
	SampleRateHertz int    `yaml:"sample_rate_hertz" toml:"sample_rate_hertz"`
	// Endpoint overrides as host:port; empty uses Google's public endpoints.
	LanguageEndpoint     string `yaml:"language_endpoint" toml:"language_endpoint"`
	TextToSpeechEndpoint string `yaml:"text_to_speech_endpoint" toml:"text_to_speech_endpoint"`
	SpeechEndpoint       string `yaml:"speech_endpoint" toml:"speech_endpoint"`
}

type OpenAI struct {
	APIKey             string `yaml:"api_key" toml:"api_key"`
	BaseURL            string `yaml:"base_url" toml:"base_url"`
	Model              string `yaml:"model" toml:"model"`
	SpeechModel        string `yaml:"speech_model" toml:"speech_model"`
	Voice              string `yaml:"voice" toml:"voice"`
	TranscriptionModel string `yaml:"transcription_model" toml:"transcription_model"`
	Language           string `yaml:"language" toml:"language"`
}

type AI struct {
	Provider       string `yaml:"provider" toml:"provider"` // google | openai
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	Google         Google `yaml:"google" toml:"google"`
	OpenAI         OpenAI `yaml:"openai" toml:"openai"`
}

type RateLimit struct {
	// Capacity 0 disables rate limiting.
	Capacity   int `yaml:"capacity" toml:"capacity"`
	RefillRate int `yaml:"refill_rate" toml:"refill_rate"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

type Config struct {
	Server    Server    `yaml:"server" toml:"server"`
	Log       Log       `yaml:"log" toml:"log"`
	Storage   Storage   `yaml:"storage" toml:"storage"`
	AI        AI        `yaml:"ai" toml:"ai"`
	RateLimit RateLimit `yaml:"rate_limit" toml:"rate_limit"`
	CORS      CORS      `yaml:"cors" toml:"cors"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:                "127.0.0.1",
			Port:                8000,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
			IdleTimeoutSeconds:  60,
			MaxUploadBytes:      10 << 20,
		},
		Log: Log{Level: "info", Format: "console"},
		Storage: Storage{
			Backend: "local",
			Local:   Local{ResultsDir: "sentiment_results", AudioDir: "audio_files"},
			Minio:   Minio{BucketName: "voicemood", Region: "us-east-1"},
			NATS:    NATS{URL: "nats://127.0.0.1:4222", ResultsBucket: "sentiment_results", AudioBucket: "audio_files"},
			Redis:   Redis{URL: "redis://127.0.0.1:6379/0", ResultsPrefix: "voicemood:results", AudioPrefix: "voicemood:audio"},
		},
		AI: AI{
			Provider:       "google",
			TimeoutSeconds: 60,
			Google:         Google{LanguageCode: "en-US", VoiceGender: "NEUTRAL", SampleRateHertz: 48000},
			OpenAI:         OpenAI{Language: "en"},
		},
		RateLimit: RateLimit{Capacity: 0, RefillRate: 1},
		CORS:      CORS{AllowedOrigins: []string{"*"}},
	}
}

// Load baca .env (kalau ada), lalu file config (yaml atau toml, dilihat dari
// ekstensi), lalu override dari environment. File yang tidak ada bukan error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	setString("HOST", &cfg.Server.Host)
	setString("STATIC_DIR", &cfg.Server.StaticDir)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	setString("STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("RESULTS_DIR", &cfg.Storage.Local.ResultsDir)
	setString("AUDIO_DIR", &cfg.Storage.Local.AudioDir)
	setString("MINIO_ENDPOINT", &cfg.Storage.Minio.Endpoint)
	setString("MINIO_ACCESS_KEY", &cfg.Storage.Minio.AccessKey)
	setString("MINIO_SECRET_KEY", &cfg.Storage.Minio.SecretKey)
	setString("MINIO_BUCKET", &cfg.Storage.Minio.BucketName)
	setString("MINIO_REGION", &cfg.Storage.Minio.Region)
	if v, ok := os.LookupEnv("MINIO_USE_SSL"); ok && v != "" {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MINIO_USE_SSL %q: %w", v, err)
		}
		cfg.Storage.Minio.UseSSL = useSSL
	}
	setString("NATS_URL", &cfg.Storage.NATS.URL)
	setString("REDIS_URL", &cfg.Storage.Redis.URL)

	setString("AI_PROVIDER", &cfg.AI.Provider)
	setString("GOOGLE_API_KEY", &cfg.AI.Google.APIKey)
	setString("OPENAI_API_KEY", &cfg.AI.OpenAI.APIKey)
	setString("OPENAI_MODEL", &cfg.AI.OpenAI.Model)
	return nil
}

// Validate checks backend/provider names and the keys they need.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Local.ResultsDir == "" || c.Storage.Local.AudioDir == "" {
			errs = append(errs, errors.New("storage.local needs results_dir and audio_dir"))
		}
		if filepath.Clean(c.Storage.Local.ResultsDir) == filepath.Clean(c.Storage.Local.AudioDir) {
			errs = append(errs, errors.New("storage.local results_dir and audio_dir must differ"))
		}
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.BucketName == "" {
			errs = append(errs, errors.New("storage.minio needs endpoint and bucket_name"))
		}
	case "nats":
		if c.Storage.NATS.URL == "" || c.Storage.NATS.ResultsBucket == "" || c.Storage.NATS.AudioBucket == "" {
			errs = append(errs, errors.New("storage.nats needs url, results_bucket and audio_bucket"))
		}
		if c.Storage.NATS.ResultsBucket == c.Storage.NATS.AudioBucket {
			errs = append(errs, errors.New("storage.nats results_bucket and audio_bucket must differ"))
		}
	case "redis":
		if c.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("storage.redis needs url"))
		}
		if c.Storage.Redis.ResultsPrefix == c.Storage.Redis.AudioPrefix {
			errs = append(errs, errors.New("storage.redis results_prefix and audio_prefix must differ"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	switch c.AI.Provider {
	case "google":
		if c.AI.Google.APIKey == "" {
			errs = append(errs, errors.New("ai.google.api_key (or GOOGLE_API_KEY) is required"))
		}
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("ai.openai.api_key (or OPENAI_API_KEY) is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ai.provider %q", c.AI.Provider))
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (s Server) Timeouts() (read, write, idle time.Duration) {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second,
		time.Duration(s.WriteTimeoutSeconds) * time.Second,
		time.Duration(s.IdleTimeoutSeconds) * time.Second
}
