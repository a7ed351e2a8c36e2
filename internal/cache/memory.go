package cache

import (
	"context"
	"os"
	"time"

	"stockgpt/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore is an in-process TTL cache backed by go-cache, with an
// optional on-disk snapshot reloaded across runs. The snapshot is purely
// a performance optimization; a corrupt or missing file is a cache miss.
type memoryStore struct {
	cache        *gocache.Cache
	snapshotPath string
	log          *logger.Logger
}

// NewMemory creates a memory store. When snapshotPath is non-empty a
// previous snapshot is loaded if readable, and Close writes a fresh one.
func NewMemory(snapshotPath string, log *logger.Logger) Store {
	c := gocache.New(gocache.NoExpiration, 10*time.Minute)
	s := &memoryStore{cache: c, snapshotPath: snapshotPath, log: log}

	if snapshotPath != "" {
		if err := c.LoadFile(snapshotPath); err != nil {
			if !os.IsNotExist(err) {
				log.Warn("Failed to load cache snapshot, starting cold", logger.ErrorField(err), logger.StringField("path", snapshotPath))
			}
		}
	}

	return s
}

func (s *memoryStore) Get(_ context.Context, key Key) ([]byte, bool) {
	v, ok := s.cache.Get(key.String())
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok {
		// Snapshot from an incompatible version; drop it.
		s.cache.Delete(key.String())
		return nil, false
	}
	return b, true
}

func (s *memoryStore) Put(_ context.Context, key Key, value []byte, ttl time.Duration) {
	s.cache.Set(key.String(), value, ttl)
}

func (s *memoryStore) Invalidate(_ context.Context, key Key) {
	s.cache.Delete(key.String())
}

func (s *memoryStore) Close(_ context.Context) error {
	if s.snapshotPath == "" {
		return nil
	}
	s.cache.DeleteExpired()
	if err := s.cache.SaveFile(s.snapshotPath); err != nil {
		s.log.Warn("Failed to save cache snapshot", logger.ErrorField(err), logger.StringField("path", s.snapshotPath))
	}
	return nil
}
