// Package genai wraps the generative-text provider behind the three
// operations this service actually needs: bot replies, treatment plan
// drafts, and session analyses.
package genai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/harborhealth/harbor-backend/internal/config"
)

// Client is a thin wrapper over the provider SDK with fixed prompts.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a generative-text client.
func New(cfg config.GenAIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// BotReply generates the bot's next turn given the rendered conversation
// history, oldest line first.
func (c *Client) BotReply(ctx context.Context, history []string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: botSystemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "This is the conversation history:\n" + strings.Join(history, "\n"),
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// TreatmentPlan generates a care plan draft from client messages.
func (c *Client) TreatmentPlan(ctx context.Context, messages []string) (string, error) {
	return c.complete(ctx, treatmentPlanPrompt+strings.Join(messages, "\n"))
}

// SessionAnalysis summarizes a session transcript into clinical notes.
func (c *Client) SessionAnalysis(ctx context.Context, transcript string) (string, error) {
	return c.complete(ctx, sessionAnalysisPrompt+transcript)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
