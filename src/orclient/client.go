// Package orclient adapts an OpenRouter-compatible chat completion endpoint
// to the aisdk model boundary.
package orclient

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/drover-cli/drover/src/aisdk"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

var _ aisdk.ModelClient = (*Client)(nil)

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Logger  *slog.Logger
}

// Client calls a chat completion endpoint and converts between the wire
// types and aisdk's provider-neutral ones.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a client. The API key must be non-empty; credential
// absence is the caller's concern.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = base

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  cfg.Model,
		logger: logger.With("component", "orclient"),
	}
}

// ModelID returns the configured model identifier.
func (c *Client) ModelID() string {
	return c.model
}

// CreateChatCompletion performs one blocking, non-streaming model call.
// Errors are returned as-is; the session loop classifies cancellation and
// does not retry.
func (c *Client) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	c.logger.Debug("sending chat completion request",
		"model", req.Model, "messages", len(req.Messages), "tools", len(req.Tools))

	resp, err := c.api.CreateChatCompletion(ctx, convertRequest(req))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	out := convertResponse(resp)
	c.logger.Debug("chat completion succeeded",
		"tool_calls", len(out.ToolCalls), "total_tokens", out.Usage.TotalTokens)
	return out, nil
}

func convertRequest(req *aisdk.ChatCompletionRequest) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		out.Messages = append(out.Messages, convertMessage(msg))
	}
	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}
	if req.ToolChoice != "" {
		out.ToolChoice = req.ToolChoice
	}
	return out
}

func convertMessage(msg *aisdk.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       msg.Role,
		Content:    msg.Content,
		Name:       msg.Name,
		ToolCallID: msg.ToolCallID,
	}
	if len(msg.Parts) > 0 {
		out.Content = ""
		for _, part := range msg.Parts {
			switch part.Type {
			case "image_url":
				out.MultiContent = append(out.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: part.ImageURL},
				})
			default:
				out.MultiContent = append(out.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: part.Text,
				})
			}
		}
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}

func convertResponse(resp openai.ChatCompletionResponse) *aisdk.ChatCompletionResponse {
	choice := resp.Choices[0].Message
	out := &aisdk.ChatCompletionResponse{
		Content:          choice.Content,
		ReasoningContent: choice.ReasoningContent,
		Refusal:          choice.Refusal,
		Usage: &aisdk.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, call := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, aisdk.ToolCall{
			ID:   call.ID,
			Type: string(call.Type),
			Function: aisdk.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}
