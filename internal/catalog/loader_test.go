package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/auracli/aura/internal/domain"
	"github.com/auracli/aura/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func newTestLoader(repo *fakeRepo, cache *fakeCache, opts Options) *Loader {
	l := NewLoader(repo, cache, NewState(), opts, log.NullLogger())
	l.now = func() time.Time { return testNow }
	return l
}

func cachedSection(title string, n int, age time.Duration) domain.CacheEnvelope {
	sec := newSection(title, title)
	for i := 0; i < n; i++ {
		sec.MediaItems = append(sec.MediaItems, &domain.MediaItem{Title: title, LibraryTitle: title})
	}
	sec.TotalSize = n
	return domain.NewCacheEnvelope(sec, testNow.Add(-age))
}

func TestLoader_FreshCacheSkipsNetwork(t *testing.T) {
	repo := newFakeRepo(newSection("Movies", "Movies")).withItems("Movies", 3)
	cache := newFakeCache(
		cachedSection("Movies", 2, time.Hour),
		cachedSection("TV Shows", 4, 23*time.Hour),
	)
	rec := newProgressRecorder()
	l := newTestLoader(repo, cache, Options{PageSize: 5})
	l.SetObserver(rec)

	require.NoError(t, l.Load(context.Background(), true))

	assert.Zero(t, repo.listCalls())
	assert.Zero(t, repo.totalRequests())
	assert.Zero(t, cache.clearCount())

	st := l.State()
	assert.True(t, st.FullyLoaded())
	assert.False(t, st.Loading())
	assert.Len(t, st.Catalog(), 6)
	assert.Equal(t, []string{"Movies", "TV Shows"}, st.LibraryTitles())
	for _, sec := range st.Sections() {
		assert.True(t, sec.FromCache)
		assert.True(t, sec.Settled)
	}

	events := rec.of("TV Shows")
	require.Len(t, events, 1)
	assert.True(t, events[0].FromCache)
	assert.True(t, events[0].Done)
}

func TestLoader_OneStaleEnvelopeRefetchesEverything(t *testing.T) {
	repo := newFakeRepo(
		newSection("1", "Movies"),
		newSection("2", "TV Shows"),
		newSection("3", "Anime"),
	).withItems("1", 3).withItems("2", 4).withItems("3", 1)
	cache := newFakeCache(
		cachedSection("Movies", 2, time.Hour),
		cachedSection("TV Shows", 2, 25*time.Hour),
		cachedSection("Anime", 2, time.Minute),
	)
	l := newTestLoader(repo, cache, Options{PageSize: 5})

	require.NoError(t, l.Load(context.Background(), true))

	assert.Equal(t, 1, cache.clearCount())
	assert.Equal(t, 1, repo.listCalls())
	for _, id := range []string{"1", "2", "3"} {
		assert.Equal(t, []int{0}, repo.requests(id), "section %s", id)
	}

	st := l.State()
	assert.True(t, st.FullyLoaded())
	assert.Len(t, st.Catalog(), 8)

	for title, n := range map[string]int{"Movies": 3, "TV Shows": 4, "Anime": 1} {
		env, ok := cache.Get(title)
		require.True(t, ok, title)
		assert.Len(t, env.Data.MediaItems, n)
		assert.Equal(t, testNow.UnixMilli(), env.Timestamp)
	}
}

func TestLoader_EmptyCacheFallsThroughToNetwork(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 2)
	cache := newFakeCache()
	l := newTestLoader(repo, cache, Options{})

	require.NoError(t, l.Load(context.Background(), true))
	assert.Equal(t, 1, repo.listCalls())
	assert.Len(t, l.State().Catalog(), 2)
}

func TestLoader_CacheReadFailureIsAMiss(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 2)
	cache := newFakeCache(cachedSection("Movies", 9, time.Minute))
	cache.readErr = errors.New("corrupt")
	l := newTestLoader(repo, cache, Options{})

	require.NoError(t, l.Load(context.Background(), true))
	assert.Equal(t, 1, repo.listCalls())
	assert.Len(t, l.State().Catalog(), 2)
	assert.NoError(t, l.State().Err())
}

func TestLoader_SectionPageFailureIsLocal(t *testing.T) {
	// A(10 of 10), B(0 of 0), C(5 of 20, second page fails)
	repo := newFakeRepo(
		newSection("A", "A"),
		newSection("B", "B"),
		newSection("C", "C"),
	).withItems("A", 10).withItems("B", 0).withItems("C", 20)
	repo.failAt["C"] = 5
	cache := newFakeCache()

	var buf bytes.Buffer
	l := NewLoader(repo, cache, NewState(), Options{PageSize: 5}, log.New(&buf, "info"))
	l.now = func() time.Time { return testNow }
	rec := newProgressRecorder()
	l.SetObserver(rec)

	require.NoError(t, l.Load(context.Background(), false))

	st := l.State()
	assert.True(t, st.FullyLoaded())
	assert.NoError(t, st.Err(), "no page-level error")
	assert.Len(t, st.Catalog(), 15)

	env, ok := cache.Get("C")
	require.True(t, ok)
	assert.Len(t, env.Data.MediaItems, 5)
	assert.Equal(t, 20, env.Data.TotalSize)

	sections := st.Sections()
	require.Len(t, sections, 3)
	assert.NoError(t, sections[0].Err)
	assert.NoError(t, sections[1].Err)
	assert.ErrorIs(t, sections[2].Err, errPage)
	for _, sec := range sections {
		assert.True(t, sec.Settled)
	}

	events := rec.of("C")
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.ErrorIs(t, last.Err, errPage)
	assert.Equal(t, 5, last.Loaded)

	logs := buf.String()
	assert.Contains(t, logs, "section fetch stopped")
	assert.Contains(t, logs, `"section":"C"`)
}

func TestLoader_SectionListFailureIsFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.sectionsErr = domain.ErrServerOffline
	l := newTestLoader(repo, newFakeCache(), Options{})

	err := l.Load(context.Background(), false)
	require.ErrorIs(t, err, domain.ErrServerOffline)
	assert.True(t, IsFatal(err))

	st := l.State()
	assert.ErrorIs(t, st.Err(), domain.ErrServerOffline)
	assert.Empty(t, st.Catalog())
	assert.False(t, st.FullyLoaded())
	assert.False(t, st.Loading())
}

func TestLoader_FailureClearsPreviousCatalog(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 4)
	l := newTestLoader(repo, newFakeCache(), Options{})
	require.NoError(t, l.Load(context.Background(), false))
	require.Len(t, l.State().Catalog(), 4)

	repo.sectionsErr = domain.ErrAuthFailed
	require.Error(t, l.Refresh(context.Background()))
	assert.Empty(t, l.State().Catalog())
}

func TestLoader_ReentrantLoadIsNoop(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 2)
	repo.block = make(chan struct{})
	l := newTestLoader(repo, newFakeCache(), Options{})

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background(), false) }()

	require.Eventually(t, func() bool { return repo.listCalls() == 1 }, time.Second, time.Millisecond)
	assert.True(t, l.State().Loading())

	require.NoError(t, l.Load(context.Background(), false))
	assert.Equal(t, 1, repo.listCalls())

	close(repo.block)
	require.NoError(t, <-done)
	assert.True(t, l.State().FullyLoaded())
	assert.Len(t, l.State().Catalog(), 2)
}

func TestLoader_RefreshSupersedesInFlightRun(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 3)
	repo.block = make(chan struct{})
	cache := newFakeCache(cachedSection("Movies", 1, 30*time.Hour))
	l := newTestLoader(repo, cache, Options{})

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background(), true) }()
	require.Eventually(t, func() bool { return repo.listCalls() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, l.Refresh(context.Background()))

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsFatal(err))

	st := l.State()
	assert.True(t, st.FullyLoaded())
	assert.False(t, st.Loading())
	assert.NoError(t, st.Err())
	assert.Len(t, st.Catalog(), 3)
	assert.Equal(t, 2, repo.listCalls())
}

func TestLoader_RefreshBypassesFreshCache(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 3)
	cache := newFakeCache(cachedSection("Movies", 1, time.Minute))
	l := newTestLoader(repo, cache, Options{})

	require.NoError(t, l.Refresh(context.Background()))
	assert.Equal(t, 1, repo.listCalls())
	assert.Len(t, l.State().Catalog(), 3)

	env, ok := cache.Get("Movies")
	require.True(t, ok)
	assert.Len(t, env.Data.MediaItems, 3)
}

func TestLoader_ConcurrencyLimit(t *testing.T) {
	var sections []domain.LibrarySection
	repo := newFakeRepo()
	for _, id := range strings.Split("a b c d e f", " ") {
		sections = append(sections, newSection(id, strings.ToUpper(id)))
		repo.withItems(id, 6)
	}
	repo.sections = sections
	repo.delay = 5 * time.Millisecond

	l := newTestLoader(repo, newFakeCache(), Options{PageSize: 3, Concurrency: 2})
	require.NoError(t, l.Load(context.Background(), false))

	assert.LessOrEqual(t, repo.maxInflight.Load(), int32(2))
	assert.Equal(t, 12, repo.totalRequests())
	assert.Len(t, l.State().Catalog(), 36)
}

func TestLoader_CatalogKeepsSectionOrder(t *testing.T) {
	repo := newFakeRepo(
		newSection("1", "Movies"),
		newSection("2", "TV Shows"),
	).withItems("1", 2).withItems("2", 2)
	l := newTestLoader(repo, newFakeCache(), Options{})
	require.NoError(t, l.Load(context.Background(), false))

	var keys []string
	for _, item := range l.State().Catalog() {
		keys = append(keys, item.RatingKey)
	}
	assert.Equal(t, []string{"1-0", "1-1", "2-0", "2-1"}, keys)
}

func TestLoader_ProgressEvents(t *testing.T) {
	repo := newFakeRepo(newSection("1", "Movies")).withItems("1", 12)
	rec := newProgressRecorder()
	l := newTestLoader(repo, newFakeCache(), Options{PageSize: 5})
	l.SetObserver(rec)

	require.NoError(t, l.Load(context.Background(), false))

	events := rec.of("Movies")
	require.NotEmpty(t, events)
	prev := 0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Loaded, prev)
		if ev.Total > 0 {
			assert.LessOrEqual(t, ev.Loaded, ev.Total)
		}
		prev = ev.Loaded
	}
	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Equal(t, 12, last.Loaded)
	assert.Empty(t, l.State().Progress(), "progress is discarded once sections settle")
}
