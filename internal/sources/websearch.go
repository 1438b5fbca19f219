package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

var monetizationMarkers = []string{
	"pricing", "subscription", "free trial", "per month", "enterprise",
	"premium", "plans",
}

// WebSearch probes the competitive landscape: who ranks for the idea
// today and whether they show monetization signals.
func (c *Client) webSearchRequest(keywords []string) upstream.Request {
	return upstream.Request{
		Source: "websearch",
		URL:    c.cfg.SerpBaseURL + "/search.json",
		Query: url.Values{
			"engine":  {"google"},
			"q":       {strings.Join(keywords, " ") + " app pricing alternatives"},
			"api_key": {c.cfg.SerpAPIKey},
		},
	}
}

func (c *Client) WebSearch(ctx context.Context, idea string, keywords []string) (*WebSearchInsight, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if c.cfg.SerpAPIKey == "" {
		return syntheticWebSearch(idea, keywords), nil
	}

	raw, err := c.up.Invoke(ctx, c.webSearchRequest(keywords))
	if err != nil {
		c.logger.WithContext(ctx).WithSource("websearch").WithError(err).Warn("web search failed, serving synthetic data")
		return syntheticWebSearch(idea, keywords), nil
	}

	var resp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.WithContext(ctx).WithSource("websearch").WithError(err).Warn("web search response unreadable, serving synthetic data")
		return syntheticWebSearch(idea, keywords), nil
	}

	insight := &WebSearchInsight{}
	signals := map[string]bool{}
	for i, r := range resp.OrganicResults {
		if i >= 10 {
			break
		}
		insight.Competitors = append(insight.Competitors, Competitor{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
		})
		lower := strings.ToLower(r.Title + " " + r.Snippet)
		for _, m := range monetizationMarkers {
			if strings.Contains(lower, m) {
				signals[m] = true
			}
		}
	}
	for _, m := range monetizationMarkers {
		if signals[m] {
			insight.MonetizationSignals = append(insight.MonetizationSignals, m)
		}
	}
	insight.CompetitionLevel = competitionLevel(len(insight.Competitors))
	return insight, nil
}

func competitionLevel(competitors int) string {
	switch {
	case competitors <= 3:
		return "low"
	case competitors <= 7:
		return "medium"
	default:
		return "high"
	}
}
