package advisor

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/logger"
)

const systemPrompt = `You are an equity research assistant. Given one trade signal
(symbol, direction, entry price, target price, stop loss), write a single short
paragraph of plain-English commentary on the risk/reward of the setup. Do not
give financial advice disclaimers, do not use markdown, keep it under 80 words.`

// Client produces a short commentary paragraph for a trade signal via an
// OpenAI-compatible chat API. Disabled clients return empty commentary.
type Client struct {
	client  *openai.Client
	model   string
	enabled bool
	cfg     *config.Config
	logger  *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	if !cfg.Advisor.Enabled {
		return &Client{enabled: false, logger: log}
	}

	ocfg := openai.DefaultConfig(cfg.Advisor.APIKey)
	if cfg.Advisor.BaseURL != "" {
		ocfg.BaseURL = cfg.Advisor.BaseURL
	}

	return &Client{
		client:  openai.NewClientWithConfig(ocfg),
		model:   cfg.Advisor.Model,
		enabled: true,
		cfg:     cfg,
		logger:  log,
	}
}

func (c *Client) Enabled() bool { return c.enabled }

func (c *Client) Commentary(ctx context.Context, symbol, direction string, entry, target, stop float64) (string, error) {
	if !c.enabled {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.AdvisorTimeout())
	defer cancel()

	prompt := fmt.Sprintf("Signal: %s %s, entry %.2f, target %.2f, stop loss %.2f.",
		direction, symbol, entry, target, stop)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("advisor API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("advisor returned no choices")
	}

	commentary := resp.Choices[0].Message.Content
	c.logger.Debug("advisor commentary", "symbol", symbol, "length", len(commentary))
	return commentary, nil
}
