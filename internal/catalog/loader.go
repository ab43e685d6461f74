package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/auracli/aura/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Options tunes ingestion.
type Options struct {
	PageSize      int           // Items requested per page
	Concurrency   int           // Sections fetched at once; 0 = one task per section
	CacheDuration time.Duration // Freshness window for cached sections
}

// Loader coordinates cache reads and the per-section fan-out, writing
// results into a State.
type Loader struct {
	repo     domain.SectionRepository
	cache    domain.SectionCache
	state    *State
	fetcher  *Fetcher
	observer domain.SyncObserver
	logger   *slog.Logger
	now      func() time.Time

	concurrency   int
	cacheDuration time.Duration

	mu         sync.Mutex
	running    bool
	generation uint64
	cancel     context.CancelFunc
}

// NewLoader creates a loader writing into state.
func NewLoader(repo domain.SectionRepository, cache domain.SectionCache, state *State, opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheDuration <= 0 {
		opts.CacheDuration = DefaultCacheDuration
	}
	return &Loader{
		repo:          repo,
		cache:         cache,
		state:         state,
		fetcher:       NewFetcher(repo, opts.PageSize, logger),
		observer:      domain.NoOpObserver{},
		logger:        logger,
		now:           time.Now,
		concurrency:   opts.Concurrency,
		cacheDuration: opts.CacheDuration,
	}
}

// SetObserver registers the receiver of progress updates.
func (l *Loader) SetObserver(o domain.SyncObserver) {
	if o == nil {
		o = domain.NoOpObserver{}
	}
	l.observer = o
}

// State returns the state the loader writes into.
func (l *Loader) State() *State { return l.state }

// Load populates the state, from cache when useCache is set and every cached
// section is fresh, otherwise from the network. A call while another run is
// in flight is a no-op.
func (l *Loader) Load(ctx context.Context, useCache bool) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Debug("load already in flight, ignoring")
		return nil
	}
	runCtx, gen := l.beginLocked(ctx)
	l.mu.Unlock()

	defer l.end(gen)
	return l.run(runCtx, gen, useCache)
}

// Refresh cancels any in-flight run and re-fetches every section from the
// network, bypassing the cache.
func (l *Loader) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.running && l.cancel != nil {
		l.logger.Info("refresh superseding in-flight load")
		l.cancel()
	}
	runCtx, gen := l.beginLocked(ctx)
	l.mu.Unlock()

	defer l.end(gen)
	return l.run(runCtx, gen, false)
}

func (l *Loader) beginLocked(ctx context.Context) (context.Context, uint64) {
	l.generation++
	l.running = true
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state.begin(l.generation)
	return runCtx, l.generation
}

func (l *Loader) end(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation != gen {
		return
	}
	l.running = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.stop(gen)
}

func (l *Loader) run(ctx context.Context, gen uint64, useCache bool) error {
	if useCache && l.loadFromCache(gen) {
		return nil
	}

	sections, err := l.repo.GetSections(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Error("failed to fetch sections", "error", err)
			l.state.fail(gen, err)
		}
		return fmt.Errorf("fetch sections: %w", err)
	}
	if !l.state.reset(gen, sections) {
		return context.Canceled
	}
	l.logger.Info("fetching sections", "count", len(sections), "concurrency", l.concurrency)

	var g errgroup.Group
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}
	for i := range sections {
		g.Go(func() error {
			l.fetchSection(ctx, gen, i, sections[i])
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	l.state.finish(gen)
	l.logger.Info("all sections settled", "count", len(sections))
	return nil
}

// fetchSection runs one section's pagination and reconciles its result.
// Page failures stay local to the section.
func (l *Loader) fetchSection(ctx context.Context, gen uint64, i int, section domain.LibrarySection) {
	title := section.Title
	l.notify(gen, domain.SectionProgress{Section: title, Total: section.TotalSize})

	err := l.fetcher.FetchSection(ctx, &section, func(loaded, total int) {
		l.notify(gen, domain.SectionProgress{Section: title, Loaded: loaded, Total: total})
	})
	if ctx.Err() != nil {
		// Superseded or cancelled: nothing of this run is committed
		return
	}

	if cacheErr := l.cache.Set(title, domain.NewCacheEnvelope(section, l.now())); cacheErr != nil {
		l.logger.Warn("failed to cache section", "error", cacheErr, "section", title)
	}

	if !l.state.complete(gen, i, section, err) {
		return
	}
	l.observer.OnProgress(domain.SectionProgress{
		Section: title,
		Loaded:  min(len(section.MediaItems), section.TotalSize),
		Total:   section.TotalSize,
		Done:    true,
		Err:     err,
	})
}

// loadFromCache serves the whole catalog from cache when every envelope is
// fresh. Otherwise it clears the cache and reports false.
func (l *Loader) loadFromCache(gen uint64) bool {
	envs, err := l.cache.GetAll()
	if err == nil {
		err = l.checkFresh(envs)
	}
	if err == nil {
		if !l.state.loadCached(gen, envs) {
			return true
		}
		for _, env := range envs {
			l.observer.OnProgress(domain.SectionProgress{
				Section:   env.Data.Title,
				Loaded:    len(env.Data.MediaItems),
				Total:     len(env.Data.MediaItems),
				Done:      true,
				FromCache: true,
			})
		}
		l.logger.Info("loaded sections from cache", "count", len(envs))
		return true
	}

	l.logger.Info("cache miss, clearing", "reason", err, "count", len(envs))
	if err := l.cache.Clear(); err != nil {
		l.logger.Warn("failed to clear cache", "error", err)
	}
	return false
}

// checkFresh returns an ErrCacheMiss naming why envs cannot be trusted
func (l *Loader) checkFresh(envs []domain.CacheEnvelope) error {
	if len(envs) == 0 {
		return domain.ErrCacheMiss
	}
	now := l.now()
	for _, env := range envs {
		if !IsValid(env, now, l.cacheDuration) {
			return fmt.Errorf("%w: section %q is %s old", domain.ErrCacheMiss,
				env.Data.Title, env.Age(now).Round(time.Second))
		}
	}
	return nil
}

func (l *Loader) notify(gen uint64, p domain.SectionProgress) {
	if l.state.setProgress(gen, p) {
		l.observer.OnProgress(p)
	}
}

// IsFatal reports whether err from Load/Refresh left no catalog behind
// (as opposed to a cancelled run).
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
