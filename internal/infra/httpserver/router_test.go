package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/voicemood/internal/application"
	appanalysis "github.com/bryanwahyu/voicemood/internal/application/analysis"
	appspeech "github.com/bryanwahyu/voicemood/internal/application/speech"
	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
	"github.com/bryanwahyu/voicemood/internal/infra/records"
	"github.com/bryanwahyu/voicemood/internal/infra/storage"
	"github.com/bryanwahyu/voicemood/internal/middleware"
	"github.com/bryanwahyu/voicemood/internal/testutil"
)

type fixture struct {
	srv         *httptest.Server
	analyzer    *testutil.MockAnalyzer
	synth       *testutil.MockSynthesizer
	transcriber *testutil.MockTranscriber
	resultsDir  string
	audioDir    string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		analyzer:    &testutil.MockAnalyzer{Result: analysis.Score{Score: 0.8, Magnitude: 0.9}},
		synth:       &testutil.MockSynthesizer{Audio: []byte("ID3-mp3")},
		transcriber: &testutil.MockTranscriber{Transcript: "hello world"},
		resultsDir:  filepath.Join(t.TempDir(), "sentiment_results"),
		audioDir:    filepath.Join(t.TempDir(), "audio_files"),
	}
	results, err := storage.NewLocal(f.resultsDir)
	require.NoError(t, err)
	audio, err := storage.NewLocal(f.audioDir)
	require.NoError(t, err)

	log := zap.NewNop()
	audioStore := records.NewAudioStore(audio)
	analysisSvc := &appanalysis.Service{
		Results:  records.NewResultStore(results, application.SystemClock{}, log),
		Audio:    audioStore,
		Analyzer: f.analyzer,
		Log:      log,
	}
	speechSvc := &appspeech.Service{
		Audio:       audioStore,
		Synthesizer: f.synth,
		Transcriber: f.transcriber,
		Log:         log,
	}
	if opts.HealthChecks == nil {
		opts.HealthChecks = map[string]middleware.HealthChecker{"results": results, "audio": audio}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.srv = httptest.NewServer(NewRouter(ctx, analysisSvc, speechSvc, opts))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) postForm(t *testing.T, path, text string) *http.Response {
	t.Helper()
	resp, err := http.PostForm(f.srv.URL+path, url.Values{"text": {text}})
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) postAudio(t *testing.T, audio []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "recording.webm")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.srv.URL+"/speech-to-text", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type detail struct {
	Detail string `json:"detail"`
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestAnalyzeTextThenGetResult(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.postForm(t, "/analyze-text", "I love this!")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[appanalysis.Outcome](t, resp)
	assert.Equal(t, analysis.Positive, out.Sentiment)
	assert.Equal(t, 0.8, out.Score)
	assert.Equal(t, 0.9, out.Magnitude)
	require.NotEmpty(t, out.ResultID)
	assert.Equal(t, []string{"I love this!"}, f.analyzer.Texts)

	resp = f.get(t, "/get-result/"+out.ResultID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[analysis.Result](t, resp)
	assert.Equal(t, out.ResultID, got.ID)
	assert.Equal(t, "I love this!", got.Text)
	assert.Equal(t, analysis.Positive, got.Sentiment)
	assert.Equal(t, 0.8, got.Score)
	assert.Equal(t, 0.9, got.Magnitude)
	assert.Nil(t, got.AudioFilename)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestAnalyzeText_Empty(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.postForm(t, "/analyze-text", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No text provided", decode[detail](t, resp).Detail)
	assert.Zero(t, f.analyzer.Calls())
	assert.Zero(t, dirEntries(t, f.resultsDir))
}

func TestSpeechToText_TooSmall(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.postAudio(t, make([]byte, 50))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[detail](t, resp).Detail, "too small")
	assert.Zero(t, f.transcriber.Calls())
	assert.Zero(t, dirEntries(t, f.audioDir))
}

func TestSpeechToText_MissingFile(t *testing.T) {
	f := newFixture(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	resp, err := http.Post(f.srv.URL+"/speech-to-text", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file provided", decode[detail](t, resp).Detail)

	resp2 := f.postAudio(t, nil)
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "Empty audio file", decode[detail](t, resp2).Detail)
}

func TestSpeechFlow(t *testing.T) {
	f := newFixture(t, Options{})
	f.analyzer.Result = analysis.Score{Score: -0.5, Magnitude: 1.1}

	recording := bytes.Repeat([]byte{0x1a, 0x45, 0xdf, 0xa3}, 64)
	resp := f.postAudio(t, recording)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stt := decode[appspeech.Transcription](t, resp)
	assert.Equal(t, "hello world", stt.Transcript)
	assert.True(t, analysis.ValidAudioFilename(stt.AudioFilename))

	resp = f.get(t, "/get-audio/"+stt.AudioFilename)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/webm", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, recording, body)

	payload, err := json.Marshal(stt)
	require.NoError(t, err)
	resp, err = http.Post(f.srv.URL+"/analyze-speech", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[appanalysis.Outcome](t, resp)
	assert.Equal(t, analysis.Negative, out.Sentiment)

	history := decode[[]analysis.Result](t, f.get(t, "/get-history"))
	require.Len(t, history, 1)
	require.NotNil(t, history[0].AudioFilename)
	assert.Equal(t, stt.AudioFilename, *history[0].AudioFilename)
	assert.Equal(t, "hello world", history[0].Text)
}

func TestAnalyzeSpeech_Validation(t *testing.T) {
	f := newFixture(t, Options{})

	post := func(body string) *http.Response {
		resp, err := http.Post(f.srv.URL+"/analyze-speech", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post(`{"transcript": "", "audio_filename": ""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No transcript provided", decode[detail](t, resp).Detail)

	resp = post(`{"transcript": "hi", "audio_filename": "../../etc/passwd"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Audio file not found", decode[detail](t, resp).Detail)

	resp = post(`not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Zero(t, f.analyzer.Calls())
}

func TestHistory_Empty(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.get(t, "/get-history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.get(t, "/get-result/6a1f2b7e-3c4d-4e5f-8a9b-0c1d2e3f4a5b")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Result not found", decode[detail](t, resp).Detail)

	resp = f.get(t, "/get-audio/6a1f2b7e-3c4d-4e5f-8a9b-0c1d2e3f4a5b.webm")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Audio file not found", decode[detail](t, resp).Detail)

	resp = f.get(t, "/get-audio/..%2F..%2Fetc%2Fpasswd")
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusNotFound}, resp.StatusCode)
}

func TestTextToSpeech(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.postForm(t, "/text-to-speech", "hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]string](t, resp)
	audio, err := base64.StdEncoding.DecodeString(out["audio"])
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-mp3"), audio)

	resp = f.postForm(t, "/text-to-speech", "  ")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, f.synth.Calls())
}

func TestLongTextLimitOnlyForSynthesis(t *testing.T) {
	f := newFixture(t, Options{})
	long := strings.Repeat("This film was wonderful. ", 260)
	require.Greater(t, len(long), middleware.MaxSynthesisBytes)

	resp := f.postForm(t, "/analyze-text", long)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, f.analyzer.Calls())

	body, err := json.Marshal(map[string]string{"transcript": long})
	require.NoError(t, err)
	resp, err = http.Post(f.srv.URL+"/analyze-speech", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, f.analyzer.Calls())

	resp = f.postForm(t, "/text-to-speech", long)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[detail](t, resp).Detail, "too long")
	assert.Zero(t, f.synth.Calls())
}

func TestLegacyRecordServed(t *testing.T) {
	f := newFixture(t, Options{})
	id := "3f2a9c1e-7b4d-4e8a-9f0c-1d2e3f4a5b6c"
	legacy := `{"id": "` + id + `", "text": "Not bad", "sentiment": "Neutral", "score": 0.2, ` +
		`"magnitude": 0.3, "audio_filename": null, "date": "2024-10-18T12:34:56.789012"}`
	require.NoError(t, os.WriteFile(filepath.Join(f.resultsDir, id+".json"), []byte(legacy), 0o644))

	resp := f.get(t, "/get-result/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[analysis.Result](t, resp)
	assert.Equal(t, "Not bad", got.Text)
	assert.Equal(t, 2024, got.CreatedAt.Year())

	resp = f.get(t, "/get-history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]analysis.Result](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
}

func TestUpstreamErrors(t *testing.T) {
	f := newFixture(t, Options{})

	f.transcriber.Err = ai.ErrNoSpeech
	resp := f.postAudio(t, make([]byte, 200))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No speech detected in the audio", decode[detail](t, resp).Detail)
	assert.Zero(t, dirEntries(t, f.audioDir))

	f.analyzer.Err = fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, &ai.ProviderError{Provider: "google", StatusCode: 429, Message: "Quota exceeded"})
	resp = f.postForm(t, "/analyze-text", "hi")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Error in sentiment analysis: Quota exceeded", decode[detail](t, resp).Detail)
}

func TestStorageFailureHidesDetail(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, os.RemoveAll(f.resultsDir))

	resp := f.postForm(t, "/analyze-text", "I love this!")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, string(body))
	assert.NotContains(t, string(body), f.resultsDir)

	resp = f.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIndexAndHealthEndpoints(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/analyze-text")

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		assert.Equal(t, http.StatusOK, f.get(t, path).StatusCode, path)
	}
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>custom</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	f := newFixture(t, Options{StaticDir: dir})

	body, err := io.ReadAll(f.get(t, "/").Body)
	require.NoError(t, err)
	assert.Equal(t, "<html>custom</html>", string(body))

	resp := f.get(t, "/static/app.js")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(body))
}

func TestRateLimitAndCORS(t *testing.T) {
	f := newFixture(t, Options{RateCapacity: 1, RateRefill: 0, AllowedOrigins: []string{"http://localhost:3000"}})

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/get-history", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusTooManyRequests, f.get(t, "/get-history").StatusCode)
	assert.Equal(t, http.StatusOK, f.get(t, "/health").StatusCode)
}
