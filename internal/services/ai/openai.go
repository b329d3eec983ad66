package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/logger"
	"github.com/benvon/codemate/internal/request"
)

const (
	ProviderOpenAI = "openai"

	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

var errNoChoices = errors.New("no choices in response")

// OpenAIProvider implements Provider with the chat completions API.
type OpenAIProvider struct {
	client openai.Client
	model  string
	log    *zap.Logger
	debug  bool
}

func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAIProvider{
		client: client,
		model:  cfg.Model,
		log:    cfg.Logger,
		debug:  cfg.Debug,
	}
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

func (p *OpenAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	requestID := request.RequestID(ctx)
	if p.debug {
		p.log.Debug("llm_api_request",
			zap.String("provider", ProviderOpenAI),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", logger.SanitizeDebugContent(prompt)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	latency := time.Since(start)
	if err != nil {
		p.log.Warn("llm_api_error",
			zap.String("provider", ProviderOpenAI),
			zap.String("model", p.model),
			zap.Error(err),
			zap.Duration("latency", latency),
			zap.String("request_id", requestID),
		)
		return "", fmt.Errorf("openai completion failed: %w", classifyOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	content := resp.Choices[0].Message.Content
	if p.debug {
		p.log.Debug("llm_api_response",
			zap.String("provider", ProviderOpenAI),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.SanitizeDebugContent(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.String("request_id", requestID),
		)
	}
	return content, nil
}

// classifyOpenAIError lifts the SDK error into an APIError so retry logic
// does not depend on the SDK.
func classifyOpenAIError(err error) error {
	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return err
	}
	return newAPIError(sdkErr.StatusCode, sdkErr.Type, sdkErr.Code, sdkErr.Message, err)
}
