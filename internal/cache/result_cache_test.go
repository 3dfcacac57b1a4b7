package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/epeers/ownership/internal/models"
)

type testRow struct {
	CUSIP  string `json:"cusip"`
	Shares int64  `json:"shares"`
}

func newFileCache(t *testing.T, dir string, version int) *ResultCache {
	t.Helper()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return NewResultCache(store, map[string]int{"f13": version, "g13": version})
}

func TestResultCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := newFileCache(t, dir, 1)

	rows := []testRow{{CUSIP: "037833100", Shares: 100}, {CUSIP: "594918104", Shares: 50}}
	if err := c.Set("f13", "0001-23-000456", rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []testRow
	if !c.GetInto("f13", "0001-23-000456", &got) {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != rows[0] || got[1] != rows[1] {
		t.Errorf("unexpected rows: %+v", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "f13", "000123000456.json")); err != nil {
		t.Errorf("expected entry at f13/000123000456.json: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "f13", "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("expected no temp files after write, found %v", leftovers)
	}
}

func TestResultCache_DashedAndUndashedShareEntry(t *testing.T) {
	c := NewResultCache(NewMemoryStore(), nil)
	if err := c.Set("g13", "0001-23-000456", []testRow{{CUSIP: "X", Shares: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get("g13", "000123000456"); !ok {
		t.Error("expected undashed accession to hit the dashed entry")
	}
	if _, ok := c.Get("f13", "000123000456"); ok {
		t.Error("namespaces should not share entries")
	}
}

func TestResultCache_StaleVersionIsAbsent(t *testing.T) {
	dir := t.TempDir()
	old := newFileCache(t, dir, 1)
	if err := old.Set("f13", "000123000456", []testRow{{CUSIP: "X", Shares: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current := newFileCache(t, dir, 2)
	if _, ok := current.Get("f13", "000123000456"); ok {
		t.Error("entry written by parser version 1 should be absent at version 2")
	}

	if err := current.Set("f13", "000123000456", []testRow{{CUSIP: "X", Shares: 2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := current.Get("f13", "000123000456")
	if !ok {
		t.Fatal("expected hit after rewrite at current version")
	}
	if p.ParserVersion != 2 {
		t.Errorf("expected parser version 2, got %d", p.ParserVersion)
	}
}

func TestResultCache_CorruptEntryIsDeleted(t *testing.T) {
	dir := t.TempDir()
	c := newFileCache(t, dir, 1)

	path := filepath.Join(dir, "g13", "000123000456.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"parser_version": 1, "rows": [tru`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("g13", "000123000456"); ok {
		t.Fatal("corrupt entry should be reported absent")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected corrupt entry to be removed, stat err = %v", err)
	}
}

func TestResultCache_RowsOfWrongShapeAreDeleted(t *testing.T) {
	store := NewMemoryStore()
	c := NewResultCache(store, nil)
	if err := c.Set("g13", "000123000456", "not a list"); err != nil {
		t.Fatal(err)
	}

	var rows []testRow
	if c.GetInto("g13", "000123000456", &rows) {
		t.Fatal("expected miss for rows of the wrong shape")
	}
	if _, err := store.Load("g13/000123000456"); err != ErrMiss {
		t.Errorf("expected entry to be deleted, got %v", err)
	}
}

func TestResultCache_EmptyResultIsCached(t *testing.T) {
	c := NewResultCache(NewMemoryStore(), nil)
	var none []testRow
	if err := c.Set("f13", "000123000456", none); err != nil {
		t.Fatal(err)
	}
	var got []testRow
	if !c.GetInto("f13", "000123000456", &got) {
		t.Fatal("an empty parse result should still be a cache hit")
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %+v", got)
	}
}

func TestResultCache_ConcurrentWritesSameKey(t *testing.T) {
	dir := t.TempDir()
	c := newFileCache(t, dir, 1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows := []testRow{{CUSIP: fmt.Sprintf("C%02d", i), Shares: int64(i)}}
			if err := c.Set("f13", "000123000456", rows); err != nil {
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "f13", "000123000456.json"))
	if err != nil {
		t.Fatalf("failed to read entry: %v", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("entry is not valid JSON after concurrent writes: %v", err)
	}
	var rows []testRow
	if err := json.Unmarshal(p.Rows, &rows); err != nil || len(rows) != 1 {
		t.Errorf("expected exactly one writer's rows, got %s (%v)", p.Rows, err)
	}
}

func TestResultCache_Invalidate(t *testing.T) {
	c := NewResultCache(NewMemoryStore(), nil)
	if err := c.Set("f13", "000123000456", []testRow{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate("f13", "0001-23-000456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get("f13", "000123000456"); ok {
		t.Error("expected miss after invalidate")
	}
	if err := c.Invalidate("f13", "000123000456"); err != nil {
		t.Errorf("invalidating a missing entry should not fail, got %v", err)
	}
}

func TestSQLiteStore_RoundTripAndVersioning(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer store.Close()

	old := NewResultCache(store, map[string]int{"g13": 1})
	entry := models.Schedule13GEntry{Issuer: "Example Corp", CUSIP: "123456789", SharesOwned: 1000}
	if err := old.Set("g13", "0001-23-000456", entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got models.Schedule13GEntry
	if !old.GetInto("g13", "000123000456", &got) {
		t.Fatal("expected hit from sqlite store")
	}
	if got != entry {
		t.Errorf("unexpected entry: %+v", got)
	}

	if err := old.Set("g13", "000123000456", entry); err != nil {
		t.Fatalf("overwrite should upsert, got %v", err)
	}

	bumped := NewResultCache(store, map[string]int{"g13": 2})
	if _, ok := bumped.Get("g13", "000123000456"); ok {
		t.Error("expected stale version to be absent")
	}

	if err := store.Delete("g13/000123000456"); err != nil {
		t.Errorf("unexpected delete error: %v", err)
	}
	if _, err := store.Load("g13/000123000456"); err != ErrMiss {
		t.Errorf("expected ErrMiss after delete, got %v", err)
	}
}

func TestSQLiteStore_ConcurrentWritesDistinctKeys(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer store.Close()
	c := NewResultCache(store, map[string]int{"g13": 1})

	const workers, perWorker = 8, 20
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				accession := fmt.Sprintf("0000%02d-24-%06d", w, i)
				entry := models.Schedule13GEntry{Issuer: "Example Corp", CUSIP: "123456789", SharesOwned: int64(i)}
				if err := c.Set("g13", accession, entry); err != nil {
					t.Errorf("writer %d set %s: %v", w, accession, err)
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			var got models.Schedule13GEntry
			accession := fmt.Sprintf("0000%02d-24-%06d", w, i)
			if !c.GetInto("g13", accession, &got) || got.SharesOwned != int64(i) {
				t.Errorf("expected cached entry for %s, got %+v", accession, got)
			}
		}
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenStore("file", dir); err != nil {
		t.Errorf("file backend: %v", err)
	}
	s, err := OpenStore("sqlite", dir)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	s.(*SQLiteStore).Close()
	if s, err := OpenStore("memory", dir); err != nil {
		t.Errorf("memory backend: %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected a memory store, got %T", s)
	}
	if _, err := OpenStore("redis", dir); err == nil {
		t.Error("expected error for unknown backend")
	}
}
