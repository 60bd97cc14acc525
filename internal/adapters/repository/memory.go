package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

// shardCount determines the number of internal shards to reduce lock
// contention across concurrent request handlers.
const shardCount = 64

type endpointShard struct {
	mu    sync.RWMutex
	items map[string]*domain.EndpointRecord
}

// MemoryStore is an in-process implementation of ports.EndpointStore and
// ports.BeaconStore. It backs development deployments without a database and
// the concurrency tests; retention is unbounded, matching the persistent
// store.
type MemoryStore struct {
	shards [shardCount]*endpointShard

	bmu     sync.Mutex
	beacons map[string]*domain.Beacon
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{beacons: make(map[string]*domain.Beacon)}
	for i := 0; i < shardCount; i++ {
		s.shards[i] = &endpointShard{items: make(map[string]*domain.EndpointRecord)}
	}
	return s
}

func endpointKey(method, path string) string {
	return method + " " + path
}

func (s *MemoryStore) getShard(key string) *endpointShard {
	h := fnv.New32a()
	h.Write([]byte(key)) // #nosec G104
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) GetEndpoint(_ context.Context, method, path string) (*domain.EndpointRecord, error) {
	key := endpointKey(method, path)
	shard := s.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	rec, found := shard.items[key]
	if !found {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, rec *domain.EndpointRecord) (*domain.EndpointRecord, error) {
	key := endpointKey(rec.Method, rec.Path)
	shard := s.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing, found := shard.items[key]; found {
		cp := *existing
		return &cp, nil
	}
	cp := *rec
	shard.items[key] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) Touch(_ context.Context, method, path string) error {
	key := endpointKey(method, path)
	shard := s.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if rec, found := shard.items[key]; found {
		rec.HitCount++
	}
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	for i := 0; i < shardCount; i++ {
		s.shards[i].mu.RLock()
		stats.Endpoints += int64(len(s.shards[i].items))
		s.shards[i].mu.RUnlock()
	}
	s.bmu.Lock()
	stats.Beacons = int64(len(s.beacons))
	for _, b := range s.beacons {
		if b.Activated {
			stats.ActivatedBeacons++
		}
	}
	s.bmu.Unlock()
	return stats, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) SaveBeacon(_ context.Context, b *domain.Beacon) error {
	s.bmu.Lock()
	defer s.bmu.Unlock()
	cp := *b
	s.beacons[b.ID] = &cp
	return nil
}

func (s *MemoryStore) GetBeacon(_ context.Context, id string) (*domain.Beacon, error) {
	s.bmu.Lock()
	defer s.bmu.Unlock()
	b, found := s.beacons[id]
	if !found {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) MarkDownloaded(_ context.Context, id, ip string, at time.Time) (bool, error) {
	s.bmu.Lock()
	defer s.bmu.Unlock()
	b, found := s.beacons[id]
	if !found {
		return false, nil
	}
	if b.DownloadedAt == nil {
		t := at
		b.DownloadIP = ip
		b.DownloadedAt = &t
	}
	return true, nil
}

func (s *MemoryStore) MarkActivated(_ context.Context, id, ip string, at time.Time) (bool, error) {
	s.bmu.Lock()
	defer s.bmu.Unlock()
	b, found := s.beacons[id]
	if !found {
		return false, nil
	}
	if !b.Activated {
		t := at
		b.Activated = true
		b.ActivatedIP = ip
		b.ActivatedAt = &t
	}
	return true, nil
}
