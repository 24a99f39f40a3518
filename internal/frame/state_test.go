package frame

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mgpai22/markreel/internal/marker"
	"github.com/mgpai22/markreel/internal/timeline"
)

type countingStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	loads map[string]int
}

func newCountingStore(slugs ...string) *countingStore {
	s := &countingStore{data: map[string][]byte{}, loads: map[string]int{}}
	for _, slug := range slugs {
		s.data[slug] = []byte("bytes-" + slug)
	}
	return s
}

func (s *countingStore) Load(slug string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[slug]++
	data, ok := s.data[slug]
	if !ok {
		return nil, ErrMissingAsset
	}
	return data, nil
}

func start(uuid, slug string) timeline.Event {
	return timeline.Event{UUID: uuid, Directive: marker.ImageStart{Slug: slug, Rect: marker.Rect{W: 10, H: 10}}}
}

func end(uuid string) timeline.Event {
	return timeline.Event{UUID: uuid, Directive: marker.ImageEnd{}}
}

func uuids(events []timeline.Event) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.UUID)
	}
	return out
}

func TestStartThenEndRestoresActiveSet(t *testing.T) {
	state := NewState(newCountingStore("logo", "badge"), nil)
	if err := state.Apply(start("base", "badge")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := uuids(state.Active())

	if err := state.Apply(start("a", "logo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.Active()) != 2 {
		t.Fatalf("expected 2 active overlays, got %d", len(state.Active()))
	}
	if err := state.Apply(end("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := uuids(state.Active())
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("active set = %v, want %v", after, before)
	}
}

func TestEndRemovesEveryMatchingUUID(t *testing.T) {
	state := NewState(newCountingStore("logo"), nil)
	for _, ev := range []timeline.Event{start("dup", "logo"), start("keep", "logo"), start("dup", "logo")} {
		if err := state.Apply(ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := state.Apply(timeline.Event{UUID: "dup", Directive: marker.ScriptEnd{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := uuids(state.Active())
	if len(got) != 1 || got[0] != "keep" {
		t.Errorf("active = %v, want [keep]", got)
	}
}

func TestAssetLoadedOncePerSlug(t *testing.T) {
	store := newCountingStore("logo")
	state := NewState(store, nil)

	for i := 0; i < 3; i++ {
		if err := state.Apply(start("x", "logo")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.loads["logo"] != 1 {
		t.Errorf("logo loaded %d times, want 1", store.loads["logo"])
	}
	data, ok := state.Assets().Get("logo")
	if !ok || string(data) != "bytes-logo" {
		t.Errorf("cache entry = %q, %v", data, ok)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		event   timeline.Event
		wantErr error
	}{
		{"missing asset", start("a", "nope"), ErrMissingAsset},
		{"script start", timeline.Event{UUID: "s", Directive: marker.ScriptStart{}}, ErrNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState(newCountingStore(), nil)
			err := state.Apply(tt.event)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(state.Active()) != 0 {
				t.Errorf("failed event must not become active")
			}
		})
	}
}

func TestSnapshotIsIndependentOfLaterApplies(t *testing.T) {
	state := NewState(newCountingStore("logo"), nil)
	if err := state.Apply(start("a", "logo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := state.Snapshot(3, 0.1)

	if err := state.Apply(end("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.Apply(start("b", "logo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Index != 3 || snap.Time != 0.1 {
		t.Errorf("unexpected snapshot header %d/%v", snap.Index, snap.Time)
	}
	if got := uuids(snap.Overlays); len(got) != 1 || got[0] != "a" {
		t.Errorf("snapshot overlays changed: %v", got)
	}
	if snap.Assets != state.Assets() {
		t.Error("snapshot must share the asset cache")
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(logo, []byte("png"), 0644); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}

	store := FileStore{
		"logo":   logo,
		"broken": filepath.Join(dir, "missing.png"),
	}

	if data, err := store.Load("logo"); err != nil || string(data) != "png" {
		t.Errorf("Load(logo) = %q, %v", data, err)
	}
	if _, err := store.Load("unknown"); !errors.Is(err, ErrMissingAsset) {
		t.Errorf("expected ErrMissingAsset, got %v", err)
	}
	if _, err := store.Load("broken"); !errors.Is(err, ErrAssetRead) {
		t.Errorf("expected ErrAssetRead, got %v", err)
	}
}

func TestAssetCacheWriteOnceUnderConcurrency(t *testing.T) {
	cache := NewAssetCache()
	var wg sync.WaitGroup
	stored := make(chan bool, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored <- cache.Put("slug", []byte{byte(i)})
			_, _ = cache.Get("slug")
		}(i)
	}
	wg.Wait()
	close(stored)

	wins := 0
	for ok := range stored {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one successful Put, got %d", wins)
	}
	if cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", cache.Len())
	}
}
