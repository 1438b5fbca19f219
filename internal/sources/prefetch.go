package sources

import "context"

// PrefetchAll warms the dedup window for every idempotent source lookup
// the keywords would trigger. Chat is excluded: conversations are not
// idempotent. Calls are enqueued at the lowest priority and their
// outcomes never reach a caller.
func (c *Client) PrefetchAll(ctx context.Context, keywords []string) {
	if len(keywords) == 0 {
		return
	}
	c.up.Prefetch(ctx, c.redditRequest(keywords))
	if c.cfg.SerpAPIKey == "" {
		return
	}
	c.up.Prefetch(ctx, c.newsRequest(keywords))
	c.up.Prefetch(ctx, c.youtubeRequest(keywords))
	c.up.Prefetch(ctx, c.webSearchRequest(keywords))
	for _, kw := range keywords {
		c.up.Prefetch(ctx, c.trendRequest(kw))
	}
}
