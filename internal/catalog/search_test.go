package catalog

import (
	"testing"

	"github.com/auracli/aura/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want Query
	}{
		{"", Query{}},
		{"  Matrix ", Query{Raw: "  Matrix ", Phrase: "matrix"}},
		{"the DARK knight", Query{Raw: "the DARK knight", Phrase: "the dark knight"}},
		{"year:2008 dark", Query{Raw: "year:2008 dark", Phrase: "dark", Year: 2008}},
		{"y:1999", Query{Raw: "y:1999", Year: 1999}},
		{`library:"TV Shows" sev`, Query{Raw: `library:"TV Shows" sev`, Phrase: "sev", Library: "tv shows"}},
		{"lib:anime", Query{Raw: "lib:anime", Library: "anime"}},
		{"year:soon", Query{Raw: "year:soon", Phrase: "year:soon"}},
		{"mission: impossible", Query{Raw: "mission: impossible", Phrase: "mission: impossible"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuery(tt.raw))
		})
	}
}

func TestQuery_Match(t *testing.T) {
	item := &domain.MediaItem{Title: "The Dark Knight", Year: 2008, LibraryTitle: "4K Movies"}

	tests := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"dark", true},
		{"DARK KNIGHT", true},
		{"knight dark", false},
		{"year:2008", true},
		{"year:2012 dark", false},
		{"lib:movies", true},
		{"lib:shows", false},
		{`library:"4k movies" year:2008 the dark`, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuery(tt.raw).Match(item))
		})
	}
}

func TestQuery_Empty(t *testing.T) {
	assert.True(t, ParseQuery("   ").Empty())
	assert.False(t, ParseQuery("y:2001").Empty())
	assert.False(t, ParseQuery("alien").Empty())
}

func TestSuggestions(t *testing.T) {
	items := []*domain.MediaItem{
		{Title: "The Matrix"},
		{Title: "Matrix Reloaded"},
		{Title: "The Matrix"},
		{Title: "Heat"},
	}

	got := Suggestions(items, ParseQuery("mtrx"), 5)
	assert.ElementsMatch(t, []string{"The Matrix", "Matrix Reloaded"}, got)

	assert.Len(t, Suggestions(items, ParseQuery("mtrx"), 1), 1)
	assert.Empty(t, Suggestions(items, ParseQuery("year:1999"), 5))
	assert.Empty(t, Suggestions(items, ParseQuery("zzz"), 5))
}
