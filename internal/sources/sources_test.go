package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ankitjain91/pmfit-analyzer/internal/config"
	"github.com/ankitjain91/pmfit-analyzer/internal/queue"
	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	q := queue.New(queue.Config{
		MaxConcurrency: 3,
		MaxRetries:     1,
		BackoffBase:    time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	})
	cfg := config.Upstream{
		SerpBaseURL:     srv.URL,
		SerpAPIKey:      "test-key",
		RedditBaseURL:   srv.URL,
		RedditUserAgent: "pmfit-test/1.0",
		ChatBaseURL:     srv.URL,
		ChatAPIKey:      "test-key",
		ChatModel:       "advisor-1",
	}
	return New(upstream.NewClient(q, 5*time.Second), cfg), srv
}

func TestNewsParsesAndScores(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("engine"); got != "google_news" {
			t.Errorf("engine = %q, want google_news", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"news_results": []map[string]any{
				{"title": "Meal planning startup raises record funding", "link": "https://n/1", "source": map[string]any{"name": "TechWire"}},
				{"title": "Meal kit company announces layoffs", "link": "https://n/2", "source": map[string]any{"name": "BizDaily"}},
				{"title": "A look at meal planning apps", "link": "https://n/3", "source": map[string]any{"name": "AppRound"}},
			},
		})
	}))

	got, err := c.News(context.Background(), []string{"meal", "planning"})
	if err != nil {
		t.Fatalf("News() unexpected error: %v", err)
	}
	if got.Synthetic {
		t.Error("News() returned synthetic data with a live server")
	}
	if len(got.Headlines) != 3 {
		t.Fatalf("headlines = %d, want 3", len(got.Headlines))
	}
	if got.Positive != 1 || got.Negative != 1 || got.Neutral != 1 {
		t.Errorf("sentiment counts = %d/%d/%d, want 1/1/1", got.Positive, got.Negative, got.Neutral)
	}
	if got.Headlines[0].Source != "TechWire" {
		t.Errorf("headline source = %q, want TechWire", got.Headlines[0].Source)
	}
}

func TestNewsNoKeywords(t *testing.T) {
	c, _ := testClient(t, http.NotFoundHandler())
	if _, err := c.News(context.Background(), nil); !errors.Is(err, ErrNoKeywords) {
		t.Errorf("News(nil) error = %v, want ErrNoKeywords", err)
	}
}

func TestNewsFallsBackOnServerError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	got, err := c.News(context.Background(), []string{"meal"})
	if err != nil {
		t.Fatalf("News() unexpected error: %v", err)
	}
	if !got.Synthetic {
		t.Error("News() after upstream failure should be synthetic")
	}
	if len(got.Headlines) == 0 {
		t.Error("synthetic news has no headlines")
	}
}

func TestNewsSyntheticWithoutKey(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called without an API key")
	}))
	c.cfg.SerpAPIKey = ""

	got, err := c.News(context.Background(), []string{"meal"})
	if err != nil {
		t.Fatalf("News() unexpected error: %v", err)
	}
	if !got.Synthetic {
		t.Error("News() without key should be synthetic")
	}
}

func TestRedditParsesListing(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "pmfit-test/1.0" {
			t.Errorf("User-Agent = %q, want pmfit-test/1.0", ua)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"children": []map[string]any{
					{"data": map[string]any{"title": "I love this meal planning idea, great demand", "subreddit": "startups", "score": 120, "num_comments": 34, "permalink": "/r/startups/x"}},
					{"data": map[string]any{"title": "Most meal apps are broken and dead", "subreddit": "mealprep", "score": 15, "num_comments": 8, "permalink": "/r/mealprep/y"}},
				},
			},
		})
	}))

	got, err := c.Reddit(context.Background(), []string{"meal", "planning"})
	if err != nil {
		t.Fatalf("Reddit() unexpected error: %v", err)
	}
	if got.Mentions != 2 {
		t.Fatalf("mentions = %d, want 2", got.Mentions)
	}
	if got.Sentiment != 0 {
		t.Errorf("sentiment = %v, want 0 (one positive, one negative)", got.Sentiment)
	}
	if got.Posts[0].URL != "https://www.reddit.com/r/startups/x" {
		t.Errorf("post URL = %q, want permalink expansion", got.Posts[0].URL)
	}
}

func TestTrendsOneCallPerKeyword(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Query().Get("q")] = true
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"interest_over_time": map[string]any{
				"timeline_data": []map[string]any{
					{"values": []map[string]any{{"extracted_value": 10}}},
					{"values": []map[string]any{{"extracted_value": 20}}},
					{"values": []map[string]any{{"extracted_value": 30}}},
				},
			},
		})
	}))

	got, err := c.Trends(context.Background(), []string{"meal planning", "recipe app"})
	if err != nil {
		t.Fatalf("Trends() unexpected error: %v", err)
	}
	if !seen["meal planning"] || !seen["recipe app"] {
		t.Errorf("queried keywords = %v, want both keywords", seen)
	}
	if len(got.Trends) != 2 {
		t.Fatalf("trends = %d, want 2", len(got.Trends))
	}
	for _, tr := range got.Trends {
		if tr.Average != 20 {
			t.Errorf("trend %q average = %v, want 20", tr.Keyword, tr.Average)
		}
		if tr.Slope != 10 {
			t.Errorf("trend %q slope = %v, want 10", tr.Keyword, tr.Slope)
		}
	}
	if got.Momentum != 10 {
		t.Errorf("momentum = %v, want 10", got.Momentum)
	}
	if got.Synthetic {
		t.Error("Trends() returned synthetic data with a live server")
	}
}

func TestTrendsPartialFailureIsSynthetic(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad" {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"interest_over_time": map[string]any{
				"timeline_data": []map[string]any{
					{"values": []map[string]any{{"extracted_value": 50}}},
				},
			},
		})
	}))

	got, err := c.Trends(context.Background(), []string{"good", "bad"})
	if err != nil {
		t.Fatalf("Trends() unexpected error: %v", err)
	}
	if !got.Synthetic {
		t.Error("Trends() with a failed keyword should be flagged synthetic")
	}
	if len(got.Trends) != 2 {
		t.Fatalf("trends = %d, want 2 (failed keyword substituted)", len(got.Trends))
	}
}

func TestYouTubeParsesVideos(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"video_results": []map[string]any{
				{"title": "Meal prep guide", "link": "https://y/1", "views": 150000, "channel": map[string]any{"name": "KitchenPro"}},
				{"title": "Recipe app review", "link": "https://y/2", "views": 50000, "channel": map[string]any{"name": "AppCritic"}},
			},
		})
	}))

	got, err := c.YouTube(context.Background(), []string{"meal prep"})
	if err != nil {
		t.Fatalf("YouTube() unexpected error: %v", err)
	}
	if len(got.Videos) != 2 {
		t.Fatalf("videos = %d, want 2", len(got.Videos))
	}
	if got.TotalViews != 200000 {
		t.Errorf("total views = %d, want 200000", got.TotalViews)
	}
	if got.Videos[0].Channel != "KitchenPro" {
		t.Errorf("channel = %q, want KitchenPro", got.Videos[0].Channel)
	}
}

func TestWebSearchSignalsAndCompetition(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]any{
				{"title": "MealMaster pricing", "link": "https://c/1", "snippet": "Plans start at $9 per month with a free trial."},
				{"title": "Top 10 recipe apps", "link": "https://c/2", "snippet": "A roundup of popular apps."},
			},
		})
	}))

	got, err := c.WebSearch(context.Background(), "meal planner", []string{"meal", "planner"})
	if err != nil {
		t.Fatalf("WebSearch() unexpected error: %v", err)
	}
	if got.CompetitionLevel != "low" {
		t.Errorf("competition = %q, want low for 2 competitors", got.CompetitionLevel)
	}
	want := []string{"pricing", "free trial", "per month"}
	for _, sig := range want {
		found := false
		for _, s := range got.MonetizationSignals {
			if s == sig {
				found = true
			}
		}
		if !found {
			t.Errorf("monetization signals %v missing %q", got.MonetizationSignals, sig)
		}
	}
}

func TestCompetitionLevel(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{n: 0, want: "low"},
		{n: 3, want: "low"},
		{n: 4, want: "medium"},
		{n: 7, want: "medium"},
		{n: 8, want: "high"},
	}
	for _, tt := range tests {
		if got := competitionLevel(tt.n); got != tt.want {
			t.Errorf("competitionLevel(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestChatForwardsConversation(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer key", got)
		}
		var body struct {
			Model    string        `json:"model"`
			Messages []ChatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Model != "advisor-1" {
			t.Errorf("model = %q, want advisor-1", body.Model)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system prompt prepended", body.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Talk to ten users first."}},
			},
		})
	}))

	got, err := c.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "Is my idea viable?"}})
	if err != nil {
		t.Fatalf("Chat() unexpected error: %v", err)
	}
	if got.Content != "Talk to ten users first." {
		t.Errorf("Chat() content = %q", got.Content)
	}
	if got.Synthetic {
		t.Error("Chat() returned synthetic with a live server")
	}
}

func TestChatFallsBackWhenOffline(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))

	got, err := c.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("Chat() unexpected error: %v", err)
	}
	if !got.Synthetic {
		t.Error("Chat() after upstream failure should be synthetic")
	}
}

func TestFunctionDispatch(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	tests := []struct {
		name    string
		fn      string
		payload string
		wantErr error
	}{
		{name: "news", fn: "news-analysis", payload: `{"keywords":["x"]}`},
		{name: "reddit", fn: "reddit-sentiment", payload: `{"keywords":["x"]}`},
		{name: "trends", fn: "google-trends", payload: `{"keywords":["x"]}`},
		{name: "youtube", fn: "youtube-insights", payload: `{"keywords":["x"]}`},
		{name: "websearch", fn: "web-search-profitability", payload: `{"idea":"x","keywords":["x"]}`},
		{name: "chat", fn: "idea-chat", payload: `{"messages":[{"role":"user","content":"hi"}]}`},
		{name: "unknown function", fn: "does-not-exist", payload: `{}`, wantErr: ErrUnknownFunction},
		{name: "malformed payload", fn: "news-analysis", payload: `{"keywords":`, wantErr: ErrBadPayload},
		{name: "empty payload", fn: "news-analysis", payload: ``, wantErr: ErrBadPayload},
		{name: "missing keywords", fn: "news-analysis", payload: `{}`, wantErr: ErrNoKeywords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Function(context.Background(), tt.fn, json.RawMessage(tt.payload))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Function(%s) error = %v, want %v", tt.fn, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Function(%s) unexpected error: %v", tt.fn, err)
			}
			if got == nil {
				t.Errorf("Function(%s) returned nil insight", tt.fn)
			}
		})
	}
}

func TestSyntheticDeterminism(t *testing.T) {
	kws := []string{"meal", "planning"}
	a, b := syntheticNews(kws), syntheticNews(kws)
	if !reflect.DeepEqual(a, b) {
		t.Error("syntheticNews() not deterministic for identical keywords")
	}
	ta, tb := syntheticTrends(kws), syntheticTrends(kws)
	if !reflect.DeepEqual(ta, tb) {
		t.Error("syntheticTrends() not deterministic for identical keywords")
	}
	other := syntheticTrends([]string{"different", "idea"})
	if reflect.DeepEqual(ta, other) {
		t.Error("syntheticTrends() identical across different keywords")
	}
}

func TestScoreText(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{text: "Startup raises record funding", want: 1},
		{text: "Company announces layoffs after losses", want: -1},
		{text: "A quiet week in the industry", want: 0},
		{text: "Record growth despite lawsuit", want: 1},
		{text: "", want: 0},
	}
	for _, tt := range tests {
		if got := scoreText(tt.text); got != tt.want {
			t.Errorf("scoreText(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
