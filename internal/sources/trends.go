package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

// Trends fetches search-interest history, one queued call per keyword.
// The calls fan out together and the queue's concurrency cap governs
// how many run at once. A keyword whose lookup fails gets a synthetic
// series so the rest of the insight survives.
func (c *Client) Trends(ctx context.Context, keywords []string) (*TrendsInsight, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if c.cfg.SerpAPIKey == "" {
		return syntheticTrends(keywords), nil
	}

	trends := make([]KeywordTrend, len(keywords))
	failed := make([]bool, len(keywords))
	var wg sync.WaitGroup
	for i, kw := range keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()
			t, err := c.trendFor(ctx, kw)
			if err != nil {
				c.logger.WithContext(ctx).WithSource("trends").WithKeyword(kw).WithError(err).Warn("trend lookup failed, serving synthetic series")
				failed[i] = true
				st := syntheticTrends([]string{kw})
				trends[i] = st.Trends[0]
				return
			}
			trends[i] = t
		}(i, kw)
	}
	wg.Wait()

	insight := &TrendsInsight{Trends: trends}
	var slopeSum float64
	for i, t := range trends {
		slopeSum += t.Slope
		if failed[i] {
			insight.Synthetic = true
		}
	}
	insight.Momentum = slopeSum / float64(len(trends))
	return insight, nil
}

func (c *Client) trendRequest(keyword string) upstream.Request {
	return upstream.Request{
		Source: "trends",
		URL:    c.cfg.SerpBaseURL + "/search.json",
		Query: url.Values{
			"engine":    {"google_trends"},
			"q":         {keyword},
			"data_type": {"TIMESERIES"},
			"api_key":   {c.cfg.SerpAPIKey},
		},
	}
}

func (c *Client) trendFor(ctx context.Context, keyword string) (KeywordTrend, error) {
	raw, err := c.up.Invoke(ctx, c.trendRequest(keyword))
	if err != nil {
		return KeywordTrend{}, err
	}

	var resp struct {
		InterestOverTime struct {
			TimelineData []struct {
				Values []struct {
					ExtractedValue float64 `json:"extracted_value"`
				} `json:"values"`
			} `json:"timeline_data"`
		} `json:"interest_over_time"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return KeywordTrend{}, err
	}

	interest := make([]float64, 0, len(resp.InterestOverTime.TimelineData))
	for _, point := range resp.InterestOverTime.TimelineData {
		if len(point.Values) > 0 {
			interest = append(interest, point.Values[0].ExtractedValue)
		}
	}
	return summarizeTrend(keyword, interest), nil
}

// summarizeTrend computes the average and a simple endpoint slope over
// an interest series.
func summarizeTrend(keyword string, interest []float64) KeywordTrend {
	t := KeywordTrend{Keyword: keyword, Interest: interest}
	if len(interest) == 0 {
		return t
	}
	var sum float64
	for _, v := range interest {
		sum += v
	}
	t.Average = sum / float64(len(interest))
	if len(interest) > 1 {
		t.Slope = (interest[len(interest)-1] - interest[0]) / float64(len(interest)-1)
	}
	return t
}
