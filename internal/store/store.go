package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/auracli/aura/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var bucketSections = []byte("sections")

// SectionStore implements domain.SectionCache using BoltDB.
type SectionStore struct {
	db     *bolt.DB
	logger *slog.Logger
	mu     sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var _ domain.SectionCache = (*SectionStore)(nil)

// NewSectionStore opens the store for one aura server.
// An empty baseCacheDir gives a memory-only store.
func NewSectionStore(baseCacheDir, serverURL string, logger *slog.Logger) (*SectionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &SectionStore{logger: logger, cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "aura.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSections)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SectionStore{db: db, logger: logger, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Path returns the database file, or "" for a memory-only store
func (s *SectionStore) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

func (s *SectionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the last envelope written for key.
// Missing or undecodable entries and read failures report false.
func (s *SectionStore) Get(key string) (domain.CacheEnvelope, bool) {
	var env domain.CacheEnvelope

	// Check memory cache first
	s.mu.RLock()
	data, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return env, json.Unmarshal(data, &env) == nil
	}

	if s.db == nil {
		return env, false
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSections)
		if b == nil {
			return bolt.ErrBucketNotFound
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return env, false
	}
	if data == nil {
		return env, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return env, json.Unmarshal(data, &env) == nil
}

// Set overwrites the envelope for key
func (s *SectionStore) Set(key string, env domain.CacheEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSections)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// GetAll returns every stored envelope ordered by key.
// A single undecodable entry fails the whole read.
func (s *SectionStore) GetAll() ([]domain.CacheEnvelope, error) {
	raw := make(map[string][]byte)

	if s.db == nil {
		s.mu.RLock()
		for k, v := range s.cache {
			raw[k] = v
		}
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSections)
			if b == nil {
				return bolt.ErrBucketNotFound
			}
			return b.ForEach(func(k, v []byte) error {
				data := make([]byte, len(v))
				copy(data, v)
				raw[string(k)] = data
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	envs := make([]domain.CacheEnvelope, 0, len(keys))
	for _, k := range keys {
		var env domain.CacheEnvelope
		if err := json.Unmarshal(raw[k], &env); err != nil {
			return nil, fmt.Errorf("decode cache entry %q: %w", k, err)
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// Clear deletes every stored envelope
func (s *SectionStore) Clear() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketSections); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketSections)
		return err
	})
}
