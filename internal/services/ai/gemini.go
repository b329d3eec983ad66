package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/benvon/codemate/internal/logger"
	"github.com/benvon/codemate/internal/request"
)

const (
	ProviderGemini = "gemini"

	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiProvider implements Provider with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	log    *zap.Logger
	debug  bool
}

func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  cfg.Model,
		log:    cfg.Logger,
		debug:  cfg.Debug,
	}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	requestID := request.RequestID(ctx)
	if p.debug {
		p.log.Debug("llm_api_request",
			zap.String("provider", ProviderGemini),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", logger.SanitizeDebugContent(prompt)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	latency := time.Since(start)
	if err != nil {
		p.log.Warn("llm_api_error",
			zap.String("provider", ProviderGemini),
			zap.String("model", p.model),
			zap.Error(err),
			zap.Duration("latency", latency),
			zap.String("request_id", requestID),
		)
		return "", fmt.Errorf("gemini generation failed: %w", classifyGeminiError(err))
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return "", errNoChoices
	}
	if p.debug {
		p.log.Debug("llm_api_response",
			zap.String("provider", ProviderGemini),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.SanitizeDebugContent(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.String("request_id", requestID),
		)
	}
	return content, nil
}

func classifyGeminiError(err error) error {
	var sdkErr genai.APIError
	if !errors.As(err, &sdkErr) {
		return err
	}
	return newAPIError(sdkErr.Code, sdkErr.Status, sdkErr.Status, sdkErr.Message, err)
}
