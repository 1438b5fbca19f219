// fake-upstream simulates the search and chat APIs the analyzer calls,
// with configurable flakiness for exercising the retry path end to end.
//
//	FAIL_FIRST_N       fail the first N requests with 500
//	FAIL_EVERY_NTH     fail every Nth request with 500 (0 disables)
//	RESPONSE_DELAY_MS  delay before every response
//	RATE_LIMIT_AFTER   respond 429 after this many requests (0 disables)
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	failFirstN     = 0
	failEveryNth   = 0
	rateLimitAfter = 0
	responseDelay  time.Duration
	reqCount       int64
)

func main() {
	if v := os.Getenv("FAIL_FIRST_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			failFirstN = n
		}
	}
	if v := os.Getenv("FAIL_EVERY_NTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			failEveryNth = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_AFTER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rateLimitAfter = n
		}
	}
	if v := os.Getenv("RESPONSE_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			responseDelay = time.Duration(n) * time.Millisecond
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
	mux.HandleFunc("/search.json", flaky(handleSearch))
	mux.HandleFunc("/chat/completions", flaky(handleChat))

	addr := os.Getenv("HTTP_PORT")
	if addr == "" {
		addr = ":8090"
	}
	log.Printf("fake-upstream listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// flaky wraps a handler with the configured failure modes.
func flaky(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&reqCount, 1)
		if responseDelay > 0 {
			time.Sleep(responseDelay)
		}
		if n <= int64(failFirstN) {
			log.Printf("FAILING (%d/%d) %s", n, failFirstN, r.URL.Path)
			http.Error(w, "temporary failure", http.StatusInternalServerError)
			return
		}
		if failEveryNth > 0 && n%int64(failEveryNth) == 0 {
			log.Printf("FAILING (every %dth) %s", failEveryNth, r.URL.Path)
			http.Error(w, "temporary failure", http.StatusInternalServerError)
			return
		}
		if rateLimitAfter > 0 && n > int64(rateLimitAfter) {
			log.Printf("RATE LIMITING %s", r.URL.Path)
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		log.Printf("fake-upstream OK %s engine=%s", r.URL.Path, r.URL.Query().Get("engine"))
		next(w, r)
	}
}

// handleSearch serves canned payloads keyed on the engine parameter,
// shaped like the real search API responses.
func handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic := q.Get("q")
	if topic == "" {
		topic = q.Get("search_query")
	}
	w.Header().Set("Content-Type", "application/json")

	switch q.Get("engine") {
	case "google_news":
		writeJSON(w, map[string]any{
			"news_results": []map[string]any{
				{"title": fmt.Sprintf("Demand for %s keeps growing", topic), "link": "https://news.example/1", "source": map[string]any{"name": "Fake Wire"}},
				{"title": fmt.Sprintf("Investors watch the %s market", topic), "link": "https://news.example/2", "source": map[string]any{"name": "Fake Wire"}},
			},
		})
	case "google_trends":
		writeJSON(w, map[string]any{
			"interest_over_time": map[string]any{
				"timeline_data": []map[string]any{
					{"values": []map[string]any{{"extracted_value": 35}}},
					{"values": []map[string]any{{"extracted_value": 48}}},
					{"values": []map[string]any{{"extracted_value": 61}}},
				},
			},
		})
	case "youtube":
		writeJSON(w, map[string]any{
			"video_results": []map[string]any{
				{"title": fmt.Sprintf("%s explained", topic), "link": "https://videos.example/1", "views": 120000, "channel": map[string]any{"name": "Fake Academy"}},
			},
		})
	case "google":
		writeJSON(w, map[string]any{
			"organic_results": []map[string]any{
				{"title": fmt.Sprintf("Best %s tools", topic), "link": "https://web.example/1", "snippet": "Compare pricing, plans and free trial options."},
			},
		})
	default:
		// Reddit-shaped listing for unparameterized search calls.
		writeJSON(w, map[string]any{
			"data": map[string]any{
				"children": []map[string]any{
					{"data": map[string]any{"title": fmt.Sprintf("Looking for a good %s, any tips?", topic), "subreddit": "startups", "score": 87, "num_comments": 23, "permalink": "/r/startups/fake"}},
				},
			},
		})
	}
}

// handleChat serves an OpenAI-compatible completion.
func handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	question := "your idea"
	for i := len(body.Messages) - 1; i >= 0; i-- {
		if body.Messages[i].Role == "user" {
			question = body.Messages[i].Content
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{
				"role":    "assistant",
				"content": fmt.Sprintf("Regarding %q: validate demand before building.", truncate(question, 80)),
			}},
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// truncate trims s to n bytes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
