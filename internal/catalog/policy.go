// Package catalog ingests library sections from the aura backend into a
// cached, searchable catalog.
package catalog

import (
	"time"

	"github.com/auracli/aura/internal/domain"
)

// DefaultCacheDuration is how long a cached section stays usable
const DefaultCacheDuration = 24 * time.Hour

// IsValid reports whether env was captured less than duration before now
func IsValid(env domain.CacheEnvelope, now time.Time, duration time.Duration) bool {
	return env.Age(now) < duration
}

// AllValid reports whether the cache can be trusted as a whole:
// at least one envelope, and every envelope fresh.
func AllValid(envs []domain.CacheEnvelope, now time.Time, duration time.Duration) bool {
	if len(envs) == 0 {
		return false
	}
	for _, env := range envs {
		if !IsValid(env, now, duration) {
			return false
		}
	}
	return true
}
