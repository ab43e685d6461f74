package domain

// ProgressFunc reports pagination progress for one section.
// Called after every page: (50, 500), (100, 500), ...
type ProgressFunc func(loaded, total int)

// SectionProgress reports progress during section ingestion.
type SectionProgress struct {
	Section   string // Section title (cache key)
	Loaded    int
	Total     int
	Done      bool
	FromCache bool
	Err       error // set when pagination stopped early
}

// SyncObserver receives progress updates during ingestion.
// Sections report from their own goroutines, so OnProgress may be called concurrently.
type SyncObserver interface {
	OnProgress(progress SectionProgress)
}

// NoOpObserver discards progress updates (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnProgress(SectionProgress) {}

// ObserverFunc adapts a function to SyncObserver.
type ObserverFunc func(SectionProgress)

func (f ObserverFunc) OnProgress(p SectionProgress) { f(p) }
