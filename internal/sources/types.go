package sources

// Headline is one news result relevant to the idea's keywords.
type Headline struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published,omitempty"`
}

// NewsInsight summarizes press coverage around the idea.
type NewsInsight struct {
	Keywords  []string   `json:"keywords"`
	Headlines []Headline `json:"headlines"`
	Positive  int        `json:"positive"`
	Negative  int        `json:"negative"`
	Neutral   int        `json:"neutral"`
	Synthetic bool       `json:"synthetic"`
}

// RedditPost is one community post mentioning the idea's keywords.
type RedditPost struct {
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Score     int    `json:"score"`
	Comments  int    `json:"comments"`
	URL       string `json:"url,omitempty"`
}

// RedditInsight summarizes community discussion and its tone.
type RedditInsight struct {
	Keywords  []string     `json:"keywords"`
	Posts     []RedditPost `json:"posts"`
	Mentions  int          `json:"mentions"`
	Sentiment float64      `json:"sentiment"` // -1..1
	Synthetic bool         `json:"synthetic"`
}

// KeywordTrend is search-interest history for one keyword.
type KeywordTrend struct {
	Keyword  string    `json:"keyword"`
	Interest []float64 `json:"interest"`
	Average  float64   `json:"average"`
	Slope    float64   `json:"slope"` // interest change per sample
}

// TrendsInsight aggregates search-interest momentum across keywords.
type TrendsInsight struct {
	Trends    []KeywordTrend `json:"trends"`
	Momentum  float64        `json:"momentum"` // mean slope, positive means rising
	Synthetic bool           `json:"synthetic"`
}

// Video is one video result relevant to the idea's keywords.
type Video struct {
	Title   string `json:"title"`
	Channel string `json:"channel"`
	Link    string `json:"link,omitempty"`
	Views   int64  `json:"views"`
}

// YouTubeInsight summarizes creator activity around the idea.
type YouTubeInsight struct {
	Keywords   []string `json:"keywords"`
	Videos     []Video  `json:"videos"`
	TotalViews int64    `json:"total_views"`
	Synthetic  bool     `json:"synthetic"`
}

// Competitor is one organic search result competing in the space.
type Competitor struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// WebSearchInsight estimates competition and monetization signals.
type WebSearchInsight struct {
	Competitors         []Competitor `json:"competitors"`
	CompetitionLevel    string       `json:"competition_level"` // low, medium, high
	MonetizationSignals []string     `json:"monetization_signals"`
	Synthetic           bool         `json:"synthetic"`
}

// ChatMessage is one turn in an advisor conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the advisor's answer.
type ChatReply struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Synthetic bool   `json:"synthetic"`
}
