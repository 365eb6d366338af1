package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog/log"
)

const defaultModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAI-backed client.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

type OpenAIClient struct {
	client      openai.Client
	model       string
	timeout     time.Duration
	temperature float64
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends prompt as the system instruction and contextText, when present, as the user message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: buildMessages(prompt, contextText),
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			log.Warn().Int("status", apiErr.StatusCode).Str("model", c.model).Msg("OpenAI request rejected")
		}
		return "", &UnavailableError{Provider: "openai", Cause: err}
	}

	if len(resp.Choices) == 0 {
		return "", &UnavailableError{Provider: "openai", Cause: errors.New("response contained no choices")}
	}

	log.Debug().
		Str("model", c.model).
		Int64("prompt_tokens", resp.Usage.PromptTokens).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Dur("duration", time.Since(start)).
		Msg("OpenAI completion received")

	return resp.Choices[0].Message.Content, nil
}

func buildMessages(prompt, contextText string) []openai.ChatCompletionMessageParamUnion {
	if contextText == "" {
		return []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}
	}
	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
		openai.UserMessage(contextText),
	}
}
