package sources

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/ankitjain91/pmfit-analyzer/internal/metrics"
)

// Synthetic data stands in when an upstream API is unreachable or no
// key is configured. It is deterministic per keyword set so repeated
// analyses of the same idea stay comparable.

func seedFor(keywords []string) int64 {
	h := fnv.New64a()
	for _, k := range keywords {
		h.Write([]byte(strings.ToLower(k)))
		h.Write([]byte{0})
	}
	return int64(h.Sum64())
}

func syntheticNews(keywords []string) *NewsInsight {
	metrics.RecordFallback("news")
	rng := rand.New(rand.NewSource(seedFor(keywords)))
	topic := strings.Join(keywords, " ")
	headlines := []Headline{
		{Title: fmt.Sprintf("Startups betting on %s see early traction", topic), Source: "Synthetic Wire"},
		{Title: fmt.Sprintf("What the rise of %s means for the market", topic), Source: "Synthetic Wire"},
		{Title: fmt.Sprintf("Investors split on %s tooling", topic), Source: "Synthetic Wire"},
	}
	pos := 1 + rng.Intn(3)
	neg := rng.Intn(2)
	return &NewsInsight{
		Keywords:  keywords,
		Headlines: headlines,
		Positive:  pos,
		Negative:  neg,
		Neutral:   len(headlines) - min(len(headlines), pos+neg),
		Synthetic: true,
	}
}

func syntheticReddit(keywords []string) *RedditInsight {
	metrics.RecordFallback("reddit")
	rng := rand.New(rand.NewSource(seedFor(keywords)))
	topic := strings.Join(keywords, " ")
	posts := []RedditPost{
		{Title: fmt.Sprintf("Anyone else looking for a better %s?", topic), Subreddit: "startups", Score: 40 + rng.Intn(200), Comments: 5 + rng.Intn(60)},
		{Title: fmt.Sprintf("I built a small %s tool, feedback welcome", topic), Subreddit: "SideProject", Score: 20 + rng.Intn(120), Comments: 3 + rng.Intn(40)},
	}
	return &RedditInsight{
		Keywords:  keywords,
		Posts:     posts,
		Mentions:  len(posts),
		Sentiment: 0.1 + rng.Float64()*0.4,
		Synthetic: true,
	}
}

func syntheticTrends(keywords []string) *TrendsInsight {
	metrics.RecordFallback("trends")
	rng := rand.New(rand.NewSource(seedFor(keywords)))
	trends := make([]KeywordTrend, 0, len(keywords))
	var slopeSum float64
	for _, kw := range keywords {
		base := 20 + rng.Float64()*40
		drift := rng.Float64()*4 - 1 // biased slightly upward
		interest := make([]float64, 12)
		for i := range interest {
			interest[i] = base + drift*float64(i) + rng.Float64()*6
			if interest[i] < 0 {
				interest[i] = 0
			}
		}
		t := summarizeTrend(kw, interest)
		slopeSum += t.Slope
		trends = append(trends, t)
	}
	momentum := 0.0
	if len(trends) > 0 {
		momentum = slopeSum / float64(len(trends))
	}
	return &TrendsInsight{Trends: trends, Momentum: momentum, Synthetic: true}
}

func syntheticYouTube(keywords []string) *YouTubeInsight {
	metrics.RecordFallback("youtube")
	rng := rand.New(rand.NewSource(seedFor(keywords)))
	topic := strings.Join(keywords, " ")
	videos := []Video{
		{Title: fmt.Sprintf("I tried every %s app so you don't have to", topic), Channel: "Synthetic Reviews", Views: int64(10000 + rng.Intn(400000))},
		{Title: fmt.Sprintf("How to get started with %s in 2026", topic), Channel: "Synthetic Tutorials", Views: int64(5000 + rng.Intn(150000))},
	}
	var total int64
	for _, v := range videos {
		total += v.Views
	}
	return &YouTubeInsight{Keywords: keywords, Videos: videos, TotalViews: total, Synthetic: true}
}

func syntheticWebSearch(idea string, keywords []string) *WebSearchInsight {
	metrics.RecordFallback("websearch")
	rng := rand.New(rand.NewSource(seedFor(append([]string{idea}, keywords...))))
	n := 2 + rng.Intn(5)
	competitors := make([]Competitor, 0, n)
	for i := 0; i < n; i++ {
		competitors = append(competitors, Competitor{
			Title:   fmt.Sprintf("Competitor %d in the %s space", i+1, strings.Join(keywords, " ")),
			Link:    fmt.Sprintf("https://example.com/competitor-%d", i+1),
			Snippet: "Offers a subscription plan with a free trial.",
		})
	}
	return &WebSearchInsight{
		Competitors:         competitors,
		CompetitionLevel:    competitionLevel(len(competitors)),
		MonetizationSignals: []string{"subscription", "free trial"},
		Synthetic:           true,
	}
}

func syntheticChat(messages []ChatMessage) *ChatReply {
	metrics.RecordFallback("chat")
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = messages[i].Content
			break
		}
	}
	content := "The advisor service is offline right now. Based on your question" +
		" I would start by validating demand with a small landing page and" +
		" direct conversations with potential users."
	if last != "" {
		content = fmt.Sprintf("The advisor service is offline right now. Regarding %q:"+
			" start by validating demand with a small landing page and direct"+
			" conversations with potential users.", truncateWords(last, 12))
	}
	return &ChatReply{Role: "assistant", Content: content, Synthetic: true}
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + "..."
}
