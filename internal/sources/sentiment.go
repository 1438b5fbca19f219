package sources

import "strings"

// Small lexicon scorer for headline and post titles. It only needs to
// separate clearly positive coverage from clearly negative coverage;
// anything else counts as neutral.

var positiveWords = []string{
	"growth", "surge", "record", "launch", "funding", "raises", "breakthrough",
	"success", "wins", "profitable", "booming", "adoption", "expands", "love",
	"great", "best", "popular", "demand",
}

var negativeWords = []string{
	"layoff", "layoffs", "shutdown", "shuts", "decline", "drops", "lawsuit",
	"scam", "fraud", "fails", "failure", "struggles", "losses", "warning",
	"worst", "hate", "broken", "dead",
}

// scoreText returns +1, -1, or 0 for a piece of text.
func scoreText(s string) int {
	s = strings.ToLower(s)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(s, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(s, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	default:
		return 0
	}
}
