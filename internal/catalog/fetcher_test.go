package catalog

import (
	"bytes"
	"context"
	"testing"

	"github.com/auracli/aura/internal/domain"
	"github.com/auracli/aura/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCall struct{ loaded, total int }

func fetch(t *testing.T, repo *fakeRepo, sec domain.LibrarySection, pageSize int) (domain.LibrarySection, []progressCall, error) {
	t.Helper()
	var calls []progressCall
	f := NewFetcher(repo, pageSize, log.NullLogger())
	err := f.FetchSection(context.Background(), &sec, func(loaded, total int) {
		calls = append(calls, progressCall{loaded, total})
	})
	return sec, calls, err
}

func TestFetcher_RequestCount(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		want     []int // request offsets
	}{
		{"partial last page", 23, 5, []int{0, 5, 10, 15, 20}},
		{"exact multiple", 20, 5, []int{0, 5, 10, 15}},
		{"single page", 3, 50, []int{0}},
		{"empty section", 0, 5, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo().withItems("1", tt.total)

			sec, _, err := fetch(t, repo, newSection("1", "Movies"), tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.requests("1"))
			assert.Len(t, sec.MediaItems, tt.total)
			assert.Equal(t, tt.total, sec.TotalSize)
		})
	}
}

func TestFetcher_StopsOnEmptyPage(t *testing.T) {
	// Server claims 50 items but only delivers 7
	repo := newFakeRepo().withItems("1", 7)
	repo.totals["1"] = 50

	sec, calls, err := fetch(t, repo, newSection("1", "Movies"), 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 7}, repo.requests("1"))
	assert.Len(t, sec.MediaItems, 7)
	assert.Equal(t, 50, sec.TotalSize)
	assert.Equal(t, []progressCall{{5, 50}, {7, 50}, {7, 50}}, calls)
}

func TestFetcher_KeepsPartialResultsOnFailure(t *testing.T) {
	repo := newFakeRepo().withItems("1", 30)
	repo.failAt["1"] = 10

	sec, calls, err := fetch(t, repo, newSection("1", "Movies"), 5)
	require.ErrorIs(t, err, errPage)
	assert.Equal(t, []int{0, 5, 10}, repo.requests("1"))
	assert.Len(t, sec.MediaItems, 10)
	assert.Equal(t, 30, sec.TotalSize)
	assert.Equal(t, []progressCall{{5, 30}, {10, 30}}, calls)
}

func TestFetcher_FirstPageFailure(t *testing.T) {
	repo := newFakeRepo().withItems("1", 30)
	repo.failAt["1"] = 0

	sec, calls, err := fetch(t, repo, domain.LibrarySection{ID: "1", Title: "Movies", TotalSize: 12}, 5)
	require.ErrorIs(t, err, errPage)
	assert.Empty(t, sec.MediaItems)
	assert.Equal(t, 12, sec.TotalSize, "declared size is kept when no page succeeded")
	assert.Empty(t, calls)
}

func TestFetcher_ResumesFromExistingItems(t *testing.T) {
	repo := newFakeRepo().withItems("1", 12)
	sec := newSection("1", "Movies")
	sec.MediaItems = append(sec.MediaItems, repo.items["1"][:3]...)

	got, calls, err := fetch(t, repo, sec, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 8}, repo.requests("1"))
	assert.Equal(t, repo.items["1"], got.MediaItems)
	assert.Equal(t, []progressCall{{8, 12}, {12, 12}}, calls)
}

func TestFetcher_ProgressIsMonotonicAndBounded(t *testing.T) {
	// Server over-delivers relative to its declared total
	repo := newFakeRepo().withItems("1", 9)
	repo.totals["1"] = 4

	_, calls, err := fetch(t, repo, newSection("1", "Movies"), 5)
	require.NoError(t, err)
	require.NotEmpty(t, calls)

	prev := 0
	for _, c := range calls {
		assert.GreaterOrEqual(t, c.loaded, prev)
		assert.LessOrEqual(t, c.loaded, c.total)
		prev = c.loaded
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	repo := newFakeRepo().withItems("1", 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	sec := newSection("1", "Movies")
	err := NewFetcher(repo, 5, log.New(&buf, "info")).FetchSection(ctx, &sec, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.requests("1"))
	assert.Empty(t, buf.String(), "cancellation is not an error worth reporting")
}

func TestFetcher_PageFailureLogsError(t *testing.T) {
	repo := newFakeRepo().withItems("1", 10)
	repo.failAt["1"] = 5

	var buf bytes.Buffer
	sec := newSection("1", "Movies")
	err := NewFetcher(repo, 5, log.New(&buf, "info")).FetchSection(context.Background(), &sec, nil)
	require.ErrorIs(t, err, errPage)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "section fetch stopped")
}

func TestFetchAll_Generic(t *testing.T) {
	source := []string{"a", "b", "c", "d", "e"}
	page := func(_ context.Context, offset, limit int) ([]string, int, error) {
		return source[offset:min(offset+limit, len(source))], len(source), nil
	}

	got, total, err := fetchAll(context.Background(), nil, page, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, source, got)
}
