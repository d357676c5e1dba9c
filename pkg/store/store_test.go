package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// record is a small report-shaped struct used throughout store tests.
type record struct {
	Titulo string `json:"titulo"`
	Ordem  int    `json:"ordem"`
}

// ---------------------------------------------------------------------------
// Store[T] – basic operations
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := New[record]()
	if s == nil {
		t.Fatal("expected non-nil store")
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store, got count %d", s.Count())
	}
}

func TestNextIDIsUUID(t *testing.T) {
	s := New[record]()
	id := s.NextID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a UUID, got %q: %v", id, err)
	}
}

func TestNextIDUnique(t *testing.T) {
	s := New[record]()
	seen := make(map[string]bool, 2000)
	for i := 0; i < 2000; i++ {
		id := s.NextID()
		if seen[id] {
			t.Fatalf("duplicate id %s after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestSetAndGet(t *testing.T) {
	s := New[record]()
	s.Set("r1", record{Titulo: "alpha", Ordem: 1})

	got, ok := s.Get("r1")
	if !ok {
		t.Fatal("expected item to be found")
	}
	if got.Titulo != "alpha" || got.Ordem != 1 {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := New[record]()
	if _, ok := s.Get("nonexistent"); ok {
		t.Error("expected ok=false for missing item")
	}
}

func TestSetOverwrite(t *testing.T) {
	s := New[record]()
	s.Set("r1", record{Titulo: "first"})
	s.Set("r1", record{Titulo: "second"})

	got, _ := s.Get("r1")
	if got.Titulo != "second" {
		t.Errorf("expected overwritten item, got %+v", got)
	}
	if s.Count() != 1 {
		t.Errorf("expected count 1 after overwrite, got %d", s.Count())
	}
}

// ---------------------------------------------------------------------------
// Listing / pagination
// ---------------------------------------------------------------------------

func TestListInsertionOrder(t *testing.T) {
	s := New[record]()
	s.Set("c", record{Titulo: "alpha"})
	s.Set("a", record{Titulo: "beta"})
	s.Set("b", record{Titulo: "gamma"})

	items := s.List()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Titulo != "alpha" || items[1].Titulo != "beta" || items[2].Titulo != "gamma" {
		t.Errorf("unexpected list order: %+v", items)
	}
}

func TestPaginateWithLimit(t *testing.T) {
	s := New[record]()
	for i := 0; i < 5; i++ {
		s.Set(s.NextID(), record{Ordem: i})
	}

	page1 := s.Paginate("", 2)
	if len(page1.Data) != 2 || !page1.HasMore {
		t.Fatalf("unexpected first page: %+v", page1)
	}

	page2 := s.Paginate(page1.Cursor, 2)
	if len(page2.Data) != 2 || !page2.HasMore {
		t.Fatalf("unexpected second page: %+v", page2)
	}

	page3 := s.Paginate(page2.Cursor, 2)
	if len(page3.Data) != 1 || page3.HasMore {
		t.Fatalf("unexpected last page: %+v", page3)
	}
	if page3.Data[0].Ordem != 4 {
		t.Errorf("expected last item ordem=4, got %d", page3.Data[0].Ordem)
	}
	if page3.Total != 5 {
		t.Errorf("expected Total=5, got %d", page3.Total)
	}
}

func TestPaginateEmptyStore(t *testing.T) {
	s := New[record]()
	page := s.Paginate("", 10)
	if len(page.Data) != 0 || page.HasMore {
		t.Errorf("expected empty page, got %+v", page)
	}
}

// ---------------------------------------------------------------------------
// Snapshot / LoadSnapshot / Reset
// ---------------------------------------------------------------------------

func TestSnapshotAndLoadSnapshot(t *testing.T) {
	s := New[record]()
	s.Set("b", record{Titulo: "beta"})
	s.Set("a", record{Titulo: "alpha"})

	s2 := New[record]()
	s2.LoadSnapshot(s.Snapshot())
	if s2.Count() != 2 {
		t.Fatalf("expected 2 items after LoadSnapshot, got %d", s2.Count())
	}

	// LoadSnapshot sorts IDs, so order is deterministic.
	items := s2.List()
	if items[0].Titulo != "alpha" || items[1].Titulo != "beta" {
		t.Errorf("expected sorted order after LoadSnapshot, got %+v", items)
	}
}

func TestLoadSnapshotReplacesExisting(t *testing.T) {
	s := New[record]()
	s.Set("old", record{Titulo: "old"})
	s.LoadSnapshot(map[string]record{"new": {Titulo: "new", Ordem: 99}})

	if _, ok := s.Get("old"); ok {
		t.Error("old item should have been replaced")
	}
	got, ok := s.Get("new")
	if !ok || got.Ordem != 99 {
		t.Errorf("expected new item with Ordem=99, got %+v (found=%v)", got, ok)
	}
}

func TestReset(t *testing.T) {
	s := New[record]()
	s.Set("a", record{Titulo: "a"})
	s.Reset()

	if s.Count() != 0 {
		t.Errorf("expected 0 items after reset, got %d", s.Count())
	}
	if len(s.List()) != 0 {
		t.Error("expected empty list after reset")
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestConcurrentAccess(t *testing.T) {
	s := New[record]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := s.NextID()
			s.Set(id, record{Ordem: i})
			s.Get(id)
			s.List()
		}(i)
	}
	wg.Wait()

	if s.Count() != 100 {
		t.Errorf("expected 100, got %d", s.Count())
	}
}

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

func TestClockNow(t *testing.T) {
	c := NewClock()
	before := time.Now()
	now := c.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("clock.Now() outside expected range: before=%v now=%v after=%v", before, now, after)
	}
}

func TestClockAdvanceAndReset(t *testing.T) {
	c := NewClock()
	c.Advance(1 * time.Hour)
	c.Advance(23 * time.Hour)

	if c.Offset() != 24*time.Hour {
		t.Errorf("expected 24h cumulative offset, got %v", c.Offset())
	}

	c.Reset()
	if c.Offset() != 0 {
		t.Errorf("expected zero offset after reset, got %v", c.Offset())
	}
}
