package llm

import (
	"context"
	"sync"

	"github.com/mwillems/devassist/errors"
)

// Options carries per-request generation parameters.
type Options struct {
	MaxTokens   int64
	Temperature float64
}

// Client is the interface for a completion backend. The orchestration core
// hands it a fully rendered transcript and receives free-form completion
// text back; everything else (model selection, transport, retries) is the
// backend's concern. Transport and HTTP failures are reported with
// errors.KindBackendUnavailable.
type Client interface {
	Complete(ctx context.Context, transcript string, opts Options) (string, error)
}

// MockClient returns scripted completions in order. It is used in tests and
// when no real backend is configured.
type MockClient struct {
	mu      sync.Mutex
	Replies []string
	// Err, when set, is returned once all scripted replies are consumed.
	Err   error
	calls int

	// Transcripts records every rendered transcript the client was handed,
	// for assertions on transcript construction.
	Transcripts []string
}

func (m *MockClient) Complete(ctx context.Context, transcript string, opts Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transcripts = append(m.Transcripts, transcript)
	if m.calls >= len(m.Replies) {
		if m.Err != nil {
			return "", m.Err
		}
		return "", errors.Kindf(errors.KindBackendUnavailable, "mock client has no reply for call %d", m.calls+1)
	}
	reply := m.Replies[m.calls]
	m.calls++
	return reply, nil
}
