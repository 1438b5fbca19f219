package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

// News fetches recent coverage for the keywords and scores headline
// tone. Falls back to synthetic coverage when the API is unavailable.
func (c *Client) newsRequest(keywords []string) upstream.Request {
	return upstream.Request{
		Source: "news",
		URL:    c.cfg.SerpBaseURL + "/search.json",
		Query: url.Values{
			"engine":  {"google_news"},
			"q":       {strings.Join(keywords, " ")},
			"api_key": {c.cfg.SerpAPIKey},
		},
	}
}

func (c *Client) News(ctx context.Context, keywords []string) (*NewsInsight, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if c.cfg.SerpAPIKey == "" {
		return syntheticNews(keywords), nil
	}

	raw, err := c.up.Invoke(ctx, c.newsRequest(keywords))
	if err != nil {
		c.logger.WithContext(ctx).WithSource("news").WithError(err).Warn("news lookup failed, serving synthetic data")
		return syntheticNews(keywords), nil
	}

	var resp struct {
		NewsResults []struct {
			Title  string `json:"title"`
			Link   string `json:"link"`
			Date   string `json:"date"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"news_results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.WithContext(ctx).WithSource("news").WithError(err).Warn("news response unreadable, serving synthetic data")
		return syntheticNews(keywords), nil
	}

	insight := &NewsInsight{Keywords: keywords}
	for i, r := range resp.NewsResults {
		if i >= 20 {
			break
		}
		insight.Headlines = append(insight.Headlines, Headline{
			Title:     r.Title,
			Link:      r.Link,
			Source:    r.Source.Name,
			Published: r.Date,
		})
		switch scoreText(r.Title) {
		case 1:
			insight.Positive++
		case -1:
			insight.Negative++
		default:
			insight.Neutral++
		}
	}
	return insight, nil
}
