// Package analysis assembles market-fit reports: it extracts keywords
// from an idea, fans every source lookup out through the request queue,
// scores the aggregate, and caches the result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ankitjain91/pmfit-analyzer/internal/cache"
	"github.com/ankitjain91/pmfit-analyzer/internal/logging"
	"github.com/ankitjain91/pmfit-analyzer/internal/metrics"
	"github.com/ankitjain91/pmfit-analyzer/internal/sources"
	"github.com/ankitjain91/pmfit-analyzer/internal/tracing"
)

var (
	ErrEmptyIdea = errors.New("idea has no analyzable keywords")
	ErrNotFound  = errors.New("report not found")
)

// IdeaInput is a submitted idea.
type IdeaInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Sources is the per-source fetch surface the service fans out over.
type Sources interface {
	News(ctx context.Context, keywords []string) (*sources.NewsInsight, error)
	Reddit(ctx context.Context, keywords []string) (*sources.RedditInsight, error)
	Trends(ctx context.Context, keywords []string) (*sources.TrendsInsight, error)
	YouTube(ctx context.Context, keywords []string) (*sources.YouTubeInsight, error)
	WebSearch(ctx context.Context, idea string, keywords []string) (*sources.WebSearchInsight, error)
	Chat(ctx context.Context, messages []sources.ChatMessage) (*sources.ChatReply, error)
	PrefetchAll(ctx context.Context, keywords []string)
}

// Store persists completed reports. Optional; a nil Store keeps
// everything in the cache only.
type Store interface {
	SaveReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	RecentReports(ctx context.Context, limit int) ([]*Report, error)
}

type Service struct {
	src      Sources
	cache    *cache.Cache
	store    Store
	prefetch bool
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(src Sources, c *cache.Cache, store Store, prefetch bool) *Service {
	return &Service{
		src:      src,
		cache:    c,
		store:    store,
		prefetch: prefetch,
		logger:   logging.New("pmfit-analysis"),
		now:      time.Now,
	}
}

// Analyze runs the full fan-out for an idea and returns the assembled
// report. Upstream trouble degrades to synthetic sections; the only
// error paths are invalid input.
func (s *Service) Analyze(ctx context.Context, input IdeaInput) (*Report, error) {
	idea := strings.TrimSpace(strings.TrimSpace(input.Title) + " " + strings.TrimSpace(input.Description))
	keywords := ExtractKeywords(idea)
	if len(keywords) == 0 {
		return nil, ErrEmptyIdea
	}

	ctx, span := tracing.StartSpan(ctx, "analysis.analyze")
	defer span.End()
	log := s.logger.WithContext(ctx)

	ideaKey := "idea:" + strings.Join(keywords, "|")
	if v, ok := s.cache.Get(ideaKey); ok {
		if cached, ok := v.(*Report); ok {
			log.WithAnalysis(cached.ID).Debug("serving cached report")
			return cached, nil
		}
	}

	r := &Report{
		ID:        uuid.New().String(),
		Idea:      idea,
		Keywords:  keywords,
		CreatedAt: s.now().UTC(),
	}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		r.News, _ = s.src.News(ctx, keywords)
	}()
	go func() {
		defer wg.Done()
		r.Reddit, _ = s.src.Reddit(ctx, keywords)
	}()
	go func() {
		defer wg.Done()
		r.Trends, _ = s.src.Trends(ctx, keywords)
	}()
	go func() {
		defer wg.Done()
		r.YouTube, _ = s.src.YouTube(ctx, keywords)
	}()
	go func() {
		defer wg.Done()
		r.WebSearch, _ = s.src.WebSearch(ctx, idea, keywords)
	}()
	wg.Wait()

	r.Synthetic = syntheticSources(r)
	r.Score, r.Verdict = scoreReport(r)
	metrics.RecordAnalysis()

	s.cache.Set(ideaKey, r)
	s.cache.Set("report:"+r.ID, r)
	if s.store != nil {
		if err := s.store.SaveReport(ctx, r); err != nil {
			log.WithAnalysis(r.ID).WithError(err).Warn("report persistence failed")
		}
	}

	if s.prefetch {
		// Warm single-keyword lookups for likely follow-up analyses.
		for _, kw := range keywords {
			s.src.PrefetchAll(ctx, []string{kw})
		}
	}

	log.WithAnalysis(r.ID).
		WithField("score", r.Score).
		WithField("keywords", strings.Join(keywords, ",")).
		Info("analysis complete")
	return r, nil
}

// Get returns a report by ID, from cache first, then the store.
func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid id", ErrNotFound)
	}
	if v, ok := s.cache.Get("report:" + id); ok {
		if r, ok := v.(*Report); ok {
			return r, nil
		}
	}
	if s.store == nil {
		return nil, ErrNotFound
	}
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set("report:"+id, r)
	return r, nil
}

// Recent lists the latest persisted reports; empty without a store.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Report, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.RecentReports(ctx, limit)
}

// Chat relays one advisor conversation turn.
func (s *Service) Chat(ctx context.Context, messages []sources.ChatMessage) (*sources.ChatReply, error) {
	return s.src.Chat(ctx, messages)
}

// Prefetch warms the source dedup windows for an idea without running
// the analysis. Used when a client signals intent (hover, draft).
func (s *Service) Prefetch(ctx context.Context, input IdeaInput) error {
	idea := strings.TrimSpace(strings.TrimSpace(input.Title) + " " + strings.TrimSpace(input.Description))
	keywords := ExtractKeywords(idea)
	if len(keywords) == 0 {
		return ErrEmptyIdea
	}
	s.src.PrefetchAll(ctx, keywords)
	return nil
}

func syntheticSources(r *Report) []string {
	var out []string
	if r.News != nil && r.News.Synthetic {
		out = append(out, "news")
	}
	if r.Reddit != nil && r.Reddit.Synthetic {
		out = append(out, "reddit")
	}
	if r.Trends != nil && r.Trends.Synthetic {
		out = append(out, "trends")
	}
	if r.YouTube != nil && r.YouTube.Synthetic {
		out = append(out, "youtube")
	}
	if r.WebSearch != nil && r.WebSearch.Synthetic {
		out = append(out, "websearch")
	}
	return out
}
