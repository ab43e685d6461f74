package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the aura backend is unreachable
	ErrServerOffline = errors.New("aura server is unreachable")

	// ErrAuthFailed indicates the backend rejected our credentials
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrSectionNotFound indicates the requested library section does not exist
	ErrSectionNotFound = errors.New("library section not found")

	// ErrCacheMiss indicates the cache cannot serve the catalog
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotConfigured indicates the server URL has not been set
	ErrNotConfigured = errors.New("aura server is not configured")
)
