package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockProvider struct {
	CompleteFunc func(ctx context.Context, system, prompt string) (string, error)
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	return m.CompleteFunc(ctx, system, prompt)
}

func TestAssistant_DescribeTag(t *testing.T) {
	t.Parallel()

	var gotSystem, gotPrompt string
	p := &mockProvider{CompleteFunc: func(_ context.Context, system, prompt string) (string, error) {
		gotSystem, gotPrompt = system, prompt
		return "  Go is a compiled language.\n", nil
	}}
	a := NewAssistant(p, zaptest.NewLogger(t))

	reply, err := a.DescribeTag(context.Background(), " golang ")
	require.NoError(t, err)
	assert.Equal(t, "Go is a compiled language.", reply)
	assert.Equal(t, tagDescriptionSystem, gotSystem)
	assert.Contains(t, gotPrompt, `"golang"`)
}

func TestAssistant_Errors(t *testing.T) {
	t.Parallel()

	failing := &mockProvider{CompleteFunc: func(context.Context, string, string) (string, error) {
		return "", errors.New("upstream down")
	}}
	a := NewAssistant(failing, nil)

	tests := []struct {
		name    string
		call    func() (string, error)
		wantMsg string
	}{
		{"empty tag", func() (string, error) { return a.DescribeTag(context.Background(), "  ") }, "tag name is required"},
		{"empty question", func() (string, error) { return a.AnswerQuestion(context.Background(), "") }, "question is required"},
		{"provider failure", func() (string, error) { return a.AnswerQuestion(context.Background(), "why?") }, "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.call()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	r := NewProviderRegistry()
	assert.Equal(t, []string{ProviderGemini, ProviderOpenAI}, r.Names())

	p, err := r.GetProvider(context.Background(), ProviderOpenAI, ProviderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())

	_, err = r.GetProvider(context.Background(), ProviderGemini, ProviderConfig{})
	assert.Error(t, err, "gemini without a key")

	_, err = r.GetProvider(context.Background(), "claude", ProviderConfig{})
	var notFound *ErrProviderNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "claude", notFound.Name)

	r.Register("mock", func(context.Context, ProviderConfig) (Provider, error) { return &mockProvider{}, nil })
	p, err = r.GetProvider(context.Background(), "mock", ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	rateLimited := newAPIError(http.StatusTooManyRequests, "requests", "rate_limit_exceeded", "slow down", nil)
	quota := newAPIError(http.StatusTooManyRequests, "insufficient_quota", "insufficient_quota", "You exceeded your current quota", nil)
	server := newAPIError(http.StatusBadGateway, "server_error", "", "bad gateway", nil)
	badRequest := newAPIError(http.StatusBadRequest, "invalid_request_error", "", "bad model", nil)
	transport := errors.New("dial tcp: connection refused")

	tests := []struct {
		name      string
		err       error
		rateLimit bool
		quota     bool
		retryable bool
	}{
		{"rate limit", rateLimited, true, false, true},
		{"wrapped rate limit", errors.Join(errors.New("ctx"), rateLimited), true, false, true},
		{"quota", quota, false, true, true},
		{"server error", server, false, false, true},
		{"bad request", badRequest, false, false, false},
		{"transport", transport, false, false, true},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.rateLimit, IsRateLimitError(tt.err))
			assert.Equal(t, tt.quota, IsQuotaError(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	rateLimited := newAPIError(http.StatusTooManyRequests, "", "", "", nil)
	quota := newAPIError(http.StatusTooManyRequests, "", "insufficient_quota", "", nil)
	plain := errors.New("timeout")

	tests := []struct {
		name    string
		err     error
		attempt int
		want    time.Duration
	}{
		{"generic first", plain, 0, 5 * time.Second},
		{"generic third", plain, 2, 20 * time.Second},
		{"generic capped", plain, 10, 5 * time.Minute},
		{"negative attempt", plain, -3, 5 * time.Second},
		{"rate limit", rateLimited, 1, 2 * time.Minute},
		{"rate limit capped", rateLimited, 6, 15 * time.Minute},
		{"quota", quota, 0, time.Hour},
		{"quota capped", quota, 8, 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetRetryDelay(tt.err, tt.attempt))
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	cause := errors.New("raw")
	err := newAPIError(http.StatusTooManyRequests, "requests", "", "slow down", cause)
	assert.True(t, strings.Contains(err.Error(), "status 429"))
	assert.ErrorIs(t, err, cause)
}

func TestBuildTagDescriptionPrompt(t *testing.T) {
	t.Parallel()
	prompt := buildTagDescriptionPrompt("REACT")
	assert.Contains(t, prompt, `"REACT"`)
	assert.Contains(t, prompt, "80 words")
}

func TestNewAssistantFromConfig(t *testing.T) {
	t.Parallel()

	_, err := NewAssistantFromConfig(context.Background(), ProviderOpenAI, ProviderConfig{})
	assert.Error(t, err, "missing key")

	_, err = NewAssistantFromConfig(context.Background(), "llama", ProviderConfig{APIKey: "k"})
	var notFound *ErrProviderNotFound
	assert.ErrorAs(t, err, &notFound)

	a, err := NewAssistantFromConfig(context.Background(), ProviderOpenAI, ProviderConfig{APIKey: "k", Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, a.provider.Name())
}
