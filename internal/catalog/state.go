package catalog

import (
	"sync"

	"github.com/auracli/aura/internal/domain"
)

// SectionState is one section slot as the views see it.
type SectionState struct {
	Section   domain.LibrarySection
	FromCache bool
	Settled   bool  // fetch finished (or served from cache)
	Err       error // pagination stopped early; Section holds partial items
}

// State is the application state container shared between the loader
// (writer) and the views (readers). Every write carries the generation of
// the run that produced it; writes from a superseded run are dropped.
type State struct {
	mu          sync.RWMutex
	generation  uint64
	sections    []SectionState
	progress    map[string]domain.SectionProgress
	loading     bool
	fullyLoaded bool
	err         error
}

// NewState creates an empty state.
func NewState() *State {
	return &State{progress: make(map[string]domain.SectionProgress)}
}

// === Readers ===

// Sections returns a snapshot of every section slot in section order.
func (s *State) Sections() []SectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SectionState, len(s.sections))
	copy(out, s.sections)
	return out
}

// LibraryTitles returns section titles in section order.
func (s *State) LibraryTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, len(s.sections))
	for i, sec := range s.sections {
		titles[i] = sec.Section.Title
	}
	return titles
}

// Catalog flattens every section's items: section order, then fetch order.
func (s *State) Catalog() []*domain.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sections := make([]domain.LibrarySection, len(s.sections))
	for i, sec := range s.sections {
		sections[i] = sec.Section
	}
	return Flatten(sections)
}

// Progress returns in-flight section progress in section order.
func (s *State) Progress() []domain.SectionProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SectionProgress, 0, len(s.progress))
	for _, sec := range s.sections {
		if p, ok := s.progress[sec.Section.Title]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Loading reports whether a run is in flight.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// FullyLoaded reports whether every section of the last run has settled.
func (s *State) FullyLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullyLoaded
}

// Err returns the error that left the last run without a catalog, if any.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// === Writers (loader only) ===

func (s *State) begin(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation = gen
	s.loading = true
	s.fullyLoaded = false
	s.err = nil
}

func (s *State) current(gen uint64) bool {
	return s.generation == gen
}

func (s *State) loadCached(gen uint64, envs []domain.CacheEnvelope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.sections = make([]SectionState, len(envs))
	for i, env := range envs {
		s.sections[i] = SectionState{Section: env.Data, FromCache: true, Settled: true}
	}
	s.progress = make(map[string]domain.SectionProgress)
	s.loading = false
	s.fullyLoaded = true
	return true
}

func (s *State) reset(gen uint64, sections []domain.LibrarySection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.sections = make([]SectionState, len(sections))
	s.progress = make(map[string]domain.SectionProgress, len(sections))
	for i, sec := range sections {
		s.sections[i] = SectionState{Section: sec}
		s.progress[sec.Title] = domain.SectionProgress{Section: sec.Title, Total: sec.TotalSize}
	}
	return true
}

func (s *State) setProgress(gen uint64, p domain.SectionProgress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	if prev, ok := s.progress[p.Section]; ok && p.Loaded < prev.Loaded {
		p.Loaded = prev.Loaded
	}
	s.progress[p.Section] = p
	return true
}

func (s *State) complete(gen uint64, i int, section domain.LibrarySection, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) || i >= len(s.sections) {
		return false
	}
	s.sections[i] = SectionState{Section: section, Settled: true, Err: err}
	delete(s.progress, section.Title)
	return true
}

func (s *State) finish(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.loading = false
	s.fullyLoaded = true
	return true
}

func (s *State) fail(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.sections = nil
	s.progress = make(map[string]domain.SectionProgress)
	s.loading = false
	s.err = err
	return true
}

func (s *State) stop(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(gen) {
		s.loading = false
	}
}
