package domain

import "context"

// SectionRepository: network operations against the aura backend.
type SectionRepository interface {
	// GetSections returns every library section (items empty)
	GetSections(ctx context.Context) ([]LibrarySection, error)

	// GetSectionItems returns one page of a section's items.
	// Returns (items, totalSize, error) for pagination support
	GetSectionItems(ctx context.Context, section LibrarySection, offset, limit int) ([]*MediaItem, int, error)
}

// SectionCache is the persistent per-section envelope store.
// Keys are section titles.
type SectionCache interface {
	Get(key string) (CacheEnvelope, bool)
	Set(key string, env CacheEnvelope) error
	GetAll() ([]CacheEnvelope, error)
	Clear() error
	Close() error
}
