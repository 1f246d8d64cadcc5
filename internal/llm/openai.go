// Package llm wraps the hosted multimodal completion service used for chart analysis.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/logging"
)

// Client sends one system instruction, one user prompt and an optional chart
// image to a completion service and returns the raw reply text.
type Client interface {
	CompleteVision(ctx context.Context, systemPrompt, userPrompt, imageURL string) (string, error)
	Model() string
}

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	// JSONMode requests a json_object response format.
	JSONMode   bool
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// OpenAIClient implements Client using the OpenAI chat completions API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	jsonMode  bool
	logger    zerolog.Logger
}

// NewOpenAIClient creates a new OpenAI client. It returns ErrMissingAPIKey when no key is set.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: cfg.MaxTokens,
		jsonMode:  cfg.JSONMode,
		logger:    cfg.Logger,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// CompleteVision sends the prompt, plus the chart image when imageURL is set.
func (c *OpenAIClient) CompleteVision(ctx context.Context, systemPrompt, userPrompt, imageURL string) (string, error) {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if imageURL != "" {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    imageURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		user.Content = userPrompt
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			user,
		},
		MaxTokens: c.maxTokens,
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	logging.LogAPICall(c.logger, "POST", "chat/completions", time.Since(start), err)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperrors.NewLLMError("openai", "chat", 0, apperrors.ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify attaches the HTTP status so the retry policy can tell auth failures
// from throttling and server errors.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewLLMError("openai", "chat", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.NewLLMError("openai", "chat", reqErr.HTTPStatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewLLMError("openai", "chat", 0, apperrors.Wrap(apperrors.ErrTimeout, err.Error()))
	}
	return apperrors.NewLLMError("openai", "chat", 0, err)
}
