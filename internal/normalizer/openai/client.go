package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Config holds the settings for the OpenAI-backed text generator
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client implements normalizer.TextGenerator using the chat completions API
type Client struct {
	client openai.Client
	config Config
	logger *logger.Logger
}

// NewClient creates a new OpenAI text-generation client
func NewClient(config Config, log *logger.Logger) *Client {
	if config.APIKey == "" {
		log.Warn("OpenAI API key is empty - AI intake will not work")
	}
	if config.Timeout <= 0 {
		config.Timeout = 45 * time.Second
	}

	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(config.APIKey),
			option.WithRequestTimeout(config.Timeout),
		),
		config: config,
		logger: log.Named("openai-client"),
	}
}

// Generate sends one system+user prompt pair and returns the raw response text
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key is required for AI intake")
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.config.Model),
		Temperature: openai.Float(c.config.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return completion.Choices[0].Message.Content, nil
}
