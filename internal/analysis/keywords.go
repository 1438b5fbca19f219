package analysis

import (
	"sort"
	"strings"
	"unicode"
)

// maxKeywords caps how many terms fan out to the sources; each trends
// lookup is one upstream call per keyword.
const maxKeywords = 4

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "app": true, "are": true, "as": true,
	"at": true, "be": true, "but": true, "by": true, "can": true, "could": true,
	"do": true, "for": true, "from": true, "has": true, "have": true,
	"help": true, "helps": true, "how": true, "i": true, "idea": true,
	"in": true, "is": true, "it": true, "its": true, "lets": true, "like": true,
	"make": true, "makes": true, "my": true, "new": true, "of": true,
	"on": true, "or": true, "our": true, "people": true, "platform": true,
	"service": true, "so": true, "that": true, "the": true, "their": true,
	"them": true, "they": true, "this": true, "to": true, "tool": true,
	"use": true, "users": true, "using": true, "want": true, "we": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// ExtractKeywords pulls the most frequent non-stopword terms out of an
// idea description, in first-appearance order among equal counts.
func ExtractKeywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	counts := map[string]int{}
	firstSeen := map[string]int{}
	for i, w := range words {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		if _, ok := counts[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	keywords := make([]string, 0, len(counts))
	for w := range counts {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		a, b := keywords[i], keywords[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return firstSeen[a] < firstSeen[b]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}
