// Package testutil holds capability doubles shared by service and HTTP tests.
package testutil

import (
	"context"
	"sync"

	"github.com/bryanwahyu/voicemood/internal/domain/analysis"
)

type MockAnalyzer struct {
	mu     sync.Mutex
	Result analysis.Score
	Err    error
	Texts  []string
}

func (m *MockAnalyzer) AnalyzeSentiment(_ context.Context, text string) (analysis.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Texts = append(m.Texts, text)
	if m.Err != nil {
		return analysis.Score{}, m.Err
	}
	return m.Result, nil
}

func (m *MockAnalyzer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Texts)
}

type MockSynthesizer struct {
	mu    sync.Mutex
	Audio []byte
	Err   error
	calls int
}

func (m *MockSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Audio, nil
}

func (m *MockSynthesizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockTranscriber struct {
	mu         sync.Mutex
	Transcript string
	Err        error
	calls      int
}

func (m *MockTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Transcript, nil
}

func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
