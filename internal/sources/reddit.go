package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

// Reddit searches public listings for keyword mentions and scores the
// tone of the discussion. Uses Reddit's unauthenticated JSON endpoints,
// which only require a descriptive User-Agent.
func (c *Client) redditRequest(keywords []string) upstream.Request {
	header := http.Header{}
	header.Set("User-Agent", c.cfg.RedditUserAgent)
	return upstream.Request{
		Source: "reddit",
		URL:    c.cfg.RedditBaseURL + "/search.json",
		Query: url.Values{
			"q":     {strings.Join(keywords, " ")},
			"sort":  {"relevance"},
			"t":     {"month"},
			"limit": {"25"},
		},
		Header: header,
	}
}

func (c *Client) Reddit(ctx context.Context, keywords []string) (*RedditInsight, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	raw, err := c.up.Invoke(ctx, c.redditRequest(keywords))
	if err != nil {
		c.logger.WithContext(ctx).WithSource("reddit").WithError(err).Warn("reddit lookup failed, serving synthetic data")
		return syntheticReddit(keywords), nil
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string `json:"title"`
					Subreddit   string `json:"subreddit"`
					Score       int    `json:"score"`
					NumComments int    `json:"num_comments"`
					Permalink   string `json:"permalink"`
					Selftext    string `json:"selftext"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		c.logger.WithContext(ctx).WithSource("reddit").WithError(err).Warn("reddit response unreadable, serving synthetic data")
		return syntheticReddit(keywords), nil
	}

	insight := &RedditInsight{Keywords: keywords}
	toneSum := 0
	for _, child := range listing.Data.Children {
		d := child.Data
		insight.Posts = append(insight.Posts, RedditPost{
			Title:     d.Title,
			Subreddit: d.Subreddit,
			Score:     d.Score,
			Comments:  d.NumComments,
			URL:       "https://www.reddit.com" + d.Permalink,
		})
		toneSum += scoreText(d.Title + " " + d.Selftext)
	}
	insight.Mentions = len(insight.Posts)
	if insight.Mentions > 0 {
		insight.Sentiment = float64(toneSum) / float64(insight.Mentions)
	}
	return insight, nil
}
