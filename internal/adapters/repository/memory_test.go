package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	rec, err := s.GetEndpoint(context.Background(), "GET", "/never")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record for unseen identity, got %+v", rec)
	}
}

func TestMemoryStorePutIfAbsentFirstWriterWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := &domain.EndpointRecord{Method: "GET", Path: "/a", Status: 200, Body: []byte(`{"v":1}`), CreatedAt: time.Now(), HitCount: 1}
	second := &domain.EndpointRecord{Method: "GET", Path: "/a", Status: 200, Body: []byte(`{"v":2}`), CreatedAt: time.Now(), HitCount: 1}

	got1, err := s.PutIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("first put: %v", err)
	}
	got2, err := s.PutIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("second put: %v", err)
	}

	if string(got1.Body) != `{"v":1}` || string(got2.Body) != `{"v":1}` {
		t.Fatalf("second writer must observe the first record, got %s and %s", got1.Body, got2.Body)
	}
}

func TestMemoryStorePutIfAbsentConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const writers = 32
	results := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := &domain.EndpointRecord{
				Method: "GET", Path: "/contended", Status: 200,
				Body: []byte(fmt.Sprintf(`{"writer":%d}`, i)), HitCount: 1,
			}
			got, err := s.PutIfAbsent(ctx, rec)
			if err != nil {
				t.Errorf("writer %d: %v", i, err)
				return
			}
			results[i] = string(got.Body)
		}(i)
	}
	wg.Wait()

	for i := 1; i < writers; i++ {
		if results[i] != results[0] {
			t.Fatalf("writers observed divergent canonical records: %s vs %s", results[0], results[i])
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Endpoints != 1 {
		t.Fatalf("endpoints = %d, want 1", stats.Endpoints)
	}
}

func TestMemoryStoreTouch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.PutIfAbsent(ctx, &domain.EndpointRecord{Method: "GET", Path: "/a", Status: 200, HitCount: 1})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Touch(ctx, "GET", "/a"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := s.Touch(ctx, "GET", "/missing"); err != nil {
		t.Fatalf("touch on missing identity must be a no-op, got %v", err)
	}

	rec, _ := s.GetEndpoint(ctx, "GET", "/a")
	if rec.HitCount != 2 {
		t.Fatalf("hit count = %d, want 2", rec.HitCount)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.PutIfAbsent(ctx, &domain.EndpointRecord{Method: "GET", Path: "/a", Status: 200, Body: []byte(`{}`), HitCount: 1})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	rec, _ := s.GetEndpoint(ctx, "GET", "/a")
	rec.Status = 500

	again, _ := s.GetEndpoint(ctx, "GET", "/a")
	if again.Status != 200 {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestMemoryStoreBeaconStamps(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	if err := s.SaveBeacon(ctx, &domain.Beacon{ID: "b-1", FileType: "pdf", CreatedAt: now}); err != nil {
		t.Fatalf("save: %v", err)
	}

	known, err := s.MarkDownloaded(ctx, "b-1", "203.0.113.10", now)
	if err != nil || !known {
		t.Fatalf("mark downloaded: known=%v err=%v", known, err)
	}
	// Second download keeps the original stamp.
	if _, err := s.MarkDownloaded(ctx, "b-1", "192.0.2.99", now.Add(time.Hour)); err != nil {
		t.Fatalf("second download: %v", err)
	}

	known, err = s.MarkActivated(ctx, "b-1", "198.51.100.7", now)
	if err != nil || !known {
		t.Fatalf("mark activated: known=%v err=%v", known, err)
	}
	if _, err := s.MarkActivated(ctx, "b-1", "192.0.2.99", now.Add(time.Hour)); err != nil {
		t.Fatalf("second activation: %v", err)
	}

	b, _ := s.GetBeacon(ctx, "b-1")
	if b.DownloadIP != "203.0.113.10" {
		t.Errorf("download IP = %q, first stamp must survive", b.DownloadIP)
	}
	if b.ActivatedIP != "198.51.100.7" {
		t.Errorf("activation IP = %q, first stamp must survive", b.ActivatedIP)
	}

	if known, _ := s.MarkActivated(ctx, "ghost", "192.0.2.99", now); known {
		t.Error("unknown beacon reported known")
	}
	if b, _ := s.GetBeacon(ctx, "ghost"); b != nil {
		t.Error("unknown beacon must not be created")
	}
}
