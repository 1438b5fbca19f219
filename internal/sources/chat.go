package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

const chatSystemPrompt = "You are a pragmatic startup advisor. Answer questions about " +
	"product-market fit concisely, grounded in customer discovery practice."

// Chat forwards an advisor conversation to an OpenAI-compatible
// completion endpoint. Chat turns are never deduplicated: the same
// question asked twice is two real requests.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatReply, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrBadPayload)
	}
	if c.cfg.ChatAPIKey == "" {
		return syntheticChat(messages), nil
	}

	body := map[string]any{
		"model":    c.cfg.ChatModel,
		"messages": append([]ChatMessage{{Role: "system", Content: chatSystemPrompt}}, messages...),
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.ChatAPIKey)

	raw, err := c.up.Invoke(ctx, upstream.Request{
		Source:  "chat",
		Method:  http.MethodPost,
		URL:     c.cfg.ChatBaseURL + "/chat/completions",
		Header:  header,
		Body:    body,
		NoDedup: true,
	})
	if err != nil {
		c.logger.WithContext(ctx).WithSource("chat").WithError(err).Warn("chat completion failed, serving canned reply")
		return syntheticChat(messages), nil
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Choices) == 0 {
		if err == nil {
			err = errors.New("completion response has no choices")
		}
		c.logger.WithContext(ctx).WithSource("chat").WithError(err).Warn("chat response unreadable, serving canned reply")
		return syntheticChat(messages), nil
	}
	return &ChatReply{
		Role:    resp.Choices[0].Message.Role,
		Content: resp.Choices[0].Message.Content,
	}, nil
}
