package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/internal/adapters/config"
	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

const summarizeSystemPrompt = "You are a helpful assistant that summarizes news articles concisely. Output format: Summary: <summary>"

// Summarizer generates article summaries via an OpenAI-compatible
// chat-completions endpoint
type Summarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer creates new LLM summarizer client
func NewSummarizer(cfg *config.LLMConfig) *Summarizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	return &Summarizer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// Model returns the configured model identifier
func (s *Summarizer) Model() string {
	return s.model
}

// Summarize produces a summary for one article body. Failures are mapped
// to the shared taxonomy so the orchestrator can decide on retries.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty article body: %w", models.ErrUnsupportedInput)
	}

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarizeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Please summarize the following news article:\n\n" + text},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response: %w", models.ErrUnsupportedInput)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("empty completion content: %w", models.ErrUnsupportedInput)
	}

	logger.Debug("article summarized",
		zap.String("model", s.model),
		zap.Int("input_len", len(text)),
		zap.Duration("latency", time.Since(startTime)),
	)

	return summary, nil
}

// classifyError maps transport and API errors onto the shared taxonomy
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("llm api: %v: %w", apiErr.Message, models.ErrRateLimited)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("llm api: %v: %w", apiErr.Message, models.ErrSummarizeTimeout)
		}
		return fmt.Errorf("llm api error (status %d): %v", apiErr.HTTPStatusCode, apiErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("llm request: %w", models.ErrSummarizeTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("llm request: %w", models.ErrSummarizeTimeout)
	}

	// go-openai wraps some transport failures in plain errors
	errStr := err.Error()
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return fmt.Errorf("llm request: %v: %w", err, models.ErrRateLimited)
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return fmt.Errorf("llm request: %v: %w", err, models.ErrSummarizeTimeout)
	}

	return fmt.Errorf("llm request failed: %w", err)
}
