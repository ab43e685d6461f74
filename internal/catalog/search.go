package catalog

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/auracli/aura/internal/domain"
	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// Query is a parsed search box value.
//
// Grammar: whitespace-separated tokens; "year:<n>" (or "y:<n>") pins the
// year, "library:<name>" (or "lib:<name>") pins the library title, values may
// be double-quoted. Everything else forms one phrase that must appear in the
// title, case-insensitively.
type Query struct {
	Raw     string
	Phrase  string // folded
	Year    int
	Library string // folded
}

// ParseQuery parses a search box value.
func ParseQuery(raw string) Query {
	q := Query{Raw: raw}
	var words []string
	for _, tok := range splitTokens(raw) {
		key, value, found := strings.Cut(tok, ":")
		if found && value != "" {
			switch strings.ToLower(key) {
			case "year", "y":
				if year, err := strconv.Atoi(value); err == nil {
					q.Year = year
					continue
				}
			case "library", "lib":
				q.Library = fold(value)
				continue
			}
		}
		words = append(words, tok)
	}
	q.Phrase = fold(strings.Join(words, " "))
	return q
}

// Empty reports whether the query constrains nothing.
func (q Query) Empty() bool {
	return q.Phrase == "" && q.Year == 0 && q.Library == ""
}

// Match reports whether item satisfies every part of the query.
func (q Query) Match(item *domain.MediaItem) bool {
	if q.Year != 0 && item.Year != q.Year {
		return false
	}
	if q.Library != "" && !strings.Contains(fold(item.LibraryTitle), q.Library) {
		return false
	}
	if q.Phrase != "" && !strings.Contains(fold(item.Title), q.Phrase) {
		return false
	}
	return true
}

// relevance scores how well item's title matches the phrase (lower = better)
func (q Query) relevance(item *domain.MediaItem) int {
	title := fold(item.Title)
	switch {
	case q.Phrase == "":
		return 0
	case title == q.Phrase:
		return 0
	case strings.HasPrefix(title, q.Phrase):
		return 10
	default:
		return 50 + fuzzysearch.LevenshteinDistance(q.Phrase, title)
	}
}

// Suggestions returns up to n distinct titles that fuzzily match the query
// phrase, best first. Used when the query matches nothing.
func Suggestions(items []*domain.MediaItem, q Query, n int) []string {
	if q.Phrase == "" || n <= 0 {
		return nil
	}
	titles := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.Title] {
			seen[item.Title] = true
			titles = append(titles, item.Title)
		}
	}
	lower := make([]string, len(titles))
	for i, t := range titles {
		lower[i] = fold(t)
	}

	matches := fuzzy.Find(q.Phrase, lower)
	sort.Stable(matches)
	out := make([]string, 0, n)
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, titles[m.Index])
	}
	return out
}

// fold case-folds s for case-insensitive comparison.
// A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// splitTokens splits on whitespace outside double quotes and strips the quotes
func splitTokens(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
