package httpserver

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/voicemood/internal/application/analysis"
	appspeech "github.com/bryanwahyu/voicemood/internal/application/speech"
	domai "github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
	"github.com/bryanwahyu/voicemood/internal/middleware"
)

//go:embed web/index.html
var indexHTML []byte

const defaultMaxUploadBytes = 10 << 20

type Options struct {
	Log            *zap.Logger
	StaticDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
	// RateCapacity 0 disables rate limiting.
	RateCapacity int
	RateRefill   int
	HealthChecks map[string]middleware.HealthChecker
}

type Router struct {
	analysisSvc *appanalysis.Service
	speechSvc   *appspeech.Service
	log         *zap.Logger
	staticDir   string
	maxUpload   int64
}

// NewRouter wires routes and middleware. ctx bounds background work such
// as the rate limiter janitor.
func NewRouter(ctx context.Context, analysisSvc *appanalysis.Service, speechSvc *appspeech.Service, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	r := &Router{
		analysisSvc: analysisSvc,
		speechSvc:   speechSvc,
		log:         opts.Log.Named("http"),
		staticDir:   opts.StaticDir,
		maxUpload:   opts.MaxUploadBytes,
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(opts.Log))
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if opts.RateCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(ctx, opts.RateCapacity, opts.RateRefill))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthChecks, func(name string, err error) {
		r.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Get("/", r.handleIndex)
	if r.staticDir != "" {
		mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(r.staticDir))))
	}

	mux.Post("/analyze-text", r.wrap(r.handleAnalyzeText))
	mux.Post("/text-to-speech", r.wrap(r.handleTextToSpeech))
	mux.Post("/speech-to-text", r.wrap(r.handleSpeechToText))
	mux.Post("/analyze-speech", r.wrap(r.handleAnalyzeSpeech))
	mux.Get("/get-history", r.wrap(r.handleHistory))
	mux.Get("/get-audio/{filename}", r.wrap(r.handleGetAudio))
	mux.Get("/get-result/{result_id}", r.wrap(r.handleGetResult))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			r.writeError(w, req, err)
		}
	}
}

// writeError maps the error taxonomy to a status and a safe message.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{apperr.Message(err, "Invalid input")})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{apperr.Message(err, "Not found")})
	case errors.Is(err, apperr.ErrUpstream):
		middleware.IncrementUpstreamFailures()
		status := http.StatusBadRequest
		if errors.Is(err, domai.ErrQuotaExceeded) {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, errorBody{apperr.Message(err, "Upstream service error")})
	default:
		r.log.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{"Internal server error"})
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /
// Serves static_dir/index.html when present, the embedded page otherwise.
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	if r.staticDir != "" {
		index := filepath.Join(r.staticDir, "index.html")
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			http.ServeFile(w, req, index)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// formText reads and cleans the "text" form field.
func formText(req *http.Request, validate func(string) error) (string, error) {
	raw := req.FormValue("text")
	if err := validate(raw); err != nil {
		return "", apperr.InvalidInput(err.Error())
	}
	return middleware.SanitizeString(raw), nil
}

// POST /analyze-text
// Form: text=<string>
func (r *Router) handleAnalyzeText(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	text, err := formText(req, middleware.ValidateText)
	if err != nil {
		return err
	}
	out, err := r.analysisSvc.AnalyzeText(req.Context(), text)
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()
	writeJSON(w, http.StatusOK, out)
	return nil
}

// POST /text-to-speech
// Form: text=<string>. Responds with base64 MP3.
func (r *Router) handleTextToSpeech(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	text, err := formText(req, middleware.ValidateSynthesisText)
	if err != nil {
		return err
	}
	audio, err := r.speechSvc.Synthesize(req.Context(), text)
	if err != nil {
		return err
	}
	middleware.IncrementSyntheses()
	writeJSON(w, http.StatusOK, map[string]string{
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
	return nil
}

// POST /speech-to-text
// Multipart: file=<Opus-in-WebM recording>
func (r *Router) handleSpeechToText(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.InvalidInput("Audio file too large")
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return apperr.InvalidInput("No file provided")
		}
		return apperr.InvalidInput("Malformed upload")
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		return apperr.InvalidInput("No file provided")
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return apperr.InvalidInput("Could not read uploaded file")
	}
	r.log.Info("received audio file",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(audio)),
	)

	out, err := r.speechSvc.Transcribe(req.Context(), audio)
	if err != nil {
		return err
	}
	middleware.IncrementTranscriptions()
	writeJSON(w, http.StatusOK, out)
	return nil
}

// POST /analyze-speech
// Body: {"transcript": "<text>", "audio_filename": "<name from /speech-to-text>"}
func (r *Router) handleAnalyzeSpeech(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Transcript    string `json:"transcript"`
		AudioFilename string `json:"audio_filename"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, r.maxUpload)).Decode(&body); err != nil {
		return apperr.InvalidInput("Invalid JSON body")
	}
	if err := middleware.ValidateText(body.Transcript); err != nil {
		return apperr.InvalidInput(err.Error())
	}

	out, err := r.analysisSvc.AnalyzeSpeech(req.Context(), middleware.SanitizeString(body.Transcript), body.AudioFilename)
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()
	writeJSON(w, http.StatusOK, out)
	return nil
}

// GET /get-history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	results, err := r.analysisSvc.History(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, results)
	return nil
}

// GET /get-audio/{filename}
func (r *Router) handleGetAudio(w http.ResponseWriter, req *http.Request) error {
	audio, err := r.speechSvc.Recording(req.Context(), chi.URLParam(req, "filename"))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "audio/webm")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
	return nil
}

// GET /get-result/{result_id}
func (r *Router) handleGetResult(w http.ResponseWriter, req *http.Request) error {
	result, err := r.analysisSvc.Result(req.Context(), chi.URLParam(req, "result_id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}
