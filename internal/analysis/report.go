package analysis

import (
	"math"
	"time"

	"github.com/ankitjain91/pmfit-analyzer/internal/sources"
)

// Report is one completed market-fit analysis.
type Report struct {
	ID        string                     `json:"id"`
	Idea      string                     `json:"idea"`
	Keywords  []string                   `json:"keywords"`
	CreatedAt time.Time                  `json:"created_at"`
	News      *sources.NewsInsight       `json:"news,omitempty"`
	Reddit    *sources.RedditInsight     `json:"reddit,omitempty"`
	Trends    *sources.TrendsInsight     `json:"trends,omitempty"`
	YouTube   *sources.YouTubeInsight    `json:"youtube,omitempty"`
	WebSearch *sources.WebSearchInsight  `json:"web_search,omitempty"`
	Score     int                        `json:"score"` // 0..100
	Verdict   string                     `json:"verdict"`
	Synthetic []string                   `json:"synthetic,omitempty"` // sources served from fallback data
}

// scoreReport folds the per-source signals into a 0..100 composite.
// Weights: search momentum 30, community sentiment 20, press tone 20,
// creator demand 15, competition headroom 15.
func scoreReport(r *Report) (int, string) {
	var score float64

	if r.Trends != nil {
		// Slope of a few points per sample is already a strong trend.
		score += 15 + clamp(r.Trends.Momentum*5, -15, 15)
	}
	if r.Reddit != nil {
		score += 10 + clamp(r.Reddit.Sentiment*10, -10, 10)
		if r.Reddit.Mentions >= 10 {
			score += 10
		} else {
			score += float64(r.Reddit.Mentions)
		}
	}
	if r.News != nil {
		total := r.News.Positive + r.News.Negative + r.News.Neutral
		if total > 0 {
			ratio := float64(r.News.Positive-r.News.Negative) / float64(total)
			score += 10 + clamp(ratio*10, -10, 10)
		}
	}
	if r.YouTube != nil {
		// log10 scale: 1M total views saturates the demand signal.
		if r.YouTube.TotalViews > 0 {
			score += clamp(math.Log10(float64(r.YouTube.TotalViews))*2.5, 0, 15)
		}
	}
	if r.WebSearch != nil {
		switch r.WebSearch.CompetitionLevel {
		case "low":
			score += 15
		case "medium":
			score += 8
		case "high":
			score += 2
		}
	}

	s := int(clamp(score, 0, 100))
	switch {
	case s >= 70:
		return s, "strong"
	case s >= 40:
		return s, "moderate"
	default:
		return s, "weak"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
