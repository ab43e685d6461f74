package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/auracli/aura/internal/domain"
)

var errPage = errors.New("page request failed")

// fakeRepo serves sections from memory and records every request.
type fakeRepo struct {
	sections    []domain.LibrarySection
	items       map[string][]*domain.MediaItem // by section ID
	totals      map[string]int                 // declared total override
	failAt      map[string]int                 // offset whose request fails
	sectionsErr error
	delay       time.Duration
	block       chan struct{} // first GetSections waits on it when set

	mu           sync.Mutex
	sectionCalls int
	offsets      map[string][]int

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeRepo(sections ...domain.LibrarySection) *fakeRepo {
	return &fakeRepo{
		sections: sections,
		items:    make(map[string][]*domain.MediaItem),
		totals:   make(map[string]int),
		failAt:   make(map[string]int),
		offsets:  make(map[string][]int),
	}
}

// withItems gives section id n generated items
func (r *fakeRepo) withItems(id string, n int) *fakeRepo {
	items := make([]*domain.MediaItem, n)
	for i := range items {
		items[i] = &domain.MediaItem{
			RatingKey: fmt.Sprintf("%s-%d", id, i),
			Title:     fmt.Sprintf("%s %02d", id, i),
		}
	}
	r.items[id] = items
	return r
}

func (r *fakeRepo) GetSections(ctx context.Context) ([]domain.LibrarySection, error) {
	r.mu.Lock()
	r.sectionCalls++
	first := r.sectionCalls == 1
	r.mu.Unlock()

	if first && r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.sectionsErr != nil {
		return nil, r.sectionsErr
	}
	out := make([]domain.LibrarySection, len(r.sections))
	copy(out, r.sections)
	return out, nil
}

func (r *fakeRepo) GetSectionItems(ctx context.Context, section domain.LibrarySection, offset, limit int) ([]*domain.MediaItem, int, error) {
	n := r.inflight.Add(1)
	defer r.inflight.Add(-1)
	for {
		prev := r.maxInflight.Load()
		if n <= prev || r.maxInflight.CompareAndSwap(prev, n) {
			break
		}
	}

	r.mu.Lock()
	r.offsets[section.ID] = append(r.offsets[section.ID], offset)
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if at, ok := r.failAt[section.ID]; ok && at == offset {
		return nil, 0, errPage
	}

	items := r.items[section.ID]
	total := len(items)
	if t, ok := r.totals[section.ID]; ok {
		total = t
	}
	if offset >= len(items) {
		return nil, total, nil
	}
	return items[offset:min(offset+limit, len(items))], total, nil
}

func (r *fakeRepo) requests(id string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.offsets[id]...)
}

func (r *fakeRepo) totalRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.offsets {
		n += len(o)
	}
	return n
}

func (r *fakeRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sectionCalls
}

// fakeCache is an in-memory domain.SectionCache that counts clears.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEnvelope
	clears  int
	readErr error
}

func newFakeCache(envs ...domain.CacheEnvelope) *fakeCache {
	c := &fakeCache{entries: make(map[string]domain.CacheEnvelope)}
	for _, env := range envs {
		c.entries[env.Data.Title] = env
	}
	return c
}

func (c *fakeCache) Get(key string) (domain.CacheEnvelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	env, ok := c.entries[key]
	return env, ok
}

func (c *fakeCache) Set(key string, env domain.CacheEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = env
	return nil
}

func (c *fakeCache) GetAll() ([]domain.CacheEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.CacheEnvelope, len(keys))
	for i, k := range keys {
		out[i] = c.entries[k]
	}
	return out, nil
}

func (c *fakeCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	c.entries = make(map[string]domain.CacheEnvelope)
	return nil
}

func (c *fakeCache) Close() error { return nil }

func (c *fakeCache) clearCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

// progressRecorder collects observer events per section.
type progressRecorder struct {
	mu     sync.Mutex
	events map[string][]domain.SectionProgress
}

func newProgressRecorder() *progressRecorder {
	return &progressRecorder{events: make(map[string][]domain.SectionProgress)}
}

func (p *progressRecorder) OnProgress(ev domain.SectionProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[ev.Section] = append(p.events[ev.Section], ev)
}

func (p *progressRecorder) of(section string) []domain.SectionProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SectionProgress(nil), p.events[section]...)
}

func newSection(id, title string) domain.LibrarySection {
	return domain.LibrarySection{ID: id, Title: title}
}
