// Package sources builds typed market-fit insights from third-party
// APIs. Every outbound call goes through the shared request queue; when
// a call ultimately fails (or no API key is configured) the source
// serves deterministic synthetic data instead of an error, so a report
// can always be assembled.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ankitjain91/pmfit-analyzer/internal/config"
	"github.com/ankitjain91/pmfit-analyzer/internal/logging"
	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrBadPayload      = errors.New("bad payload")
	ErrNoKeywords      = errors.New("at least one keyword is required")
)

type Client struct {
	up     *upstream.Client
	cfg    config.Upstream
	logger *logging.Logger
}

func New(up *upstream.Client, cfg config.Upstream) *Client {
	return &Client{
		up:     up,
		cfg:    cfg,
		logger: logging.New("pmfit-sources"),
	}
}

// Function dispatches one logical backend function by name, mirroring
// the per-source endpoints the dashboard calls.
func (c *Client) Function(ctx context.Context, name string, payload json.RawMessage) (any, error) {
	switch name {
	case "news-analysis":
		var p struct {
			Keywords []string `json:"keywords"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return c.News(ctx, p.Keywords)
	case "reddit-sentiment":
		var p struct {
			Keywords []string `json:"keywords"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return c.Reddit(ctx, p.Keywords)
	case "google-trends":
		var p struct {
			Keywords []string `json:"keywords"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return c.Trends(ctx, p.Keywords)
	case "youtube-insights":
		var p struct {
			Keywords []string `json:"keywords"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return c.YouTube(ctx, p.Keywords)
	case "web-search-profitability":
		var p struct {
			Idea     string   `json:"idea"`
			Keywords []string `json:"keywords"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return c.WebSearch(ctx, p.Idea, p.Keywords)
	case "idea-chat":
		var p struct {
			Messages []ChatMessage `json:"messages"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return c.Chat(ctx, p.Messages)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty body", ErrBadPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
