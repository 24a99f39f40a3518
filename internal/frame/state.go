// Package frame tracks which overlays are visible as the render clock
// advances and hands immutable snapshots to the compositor.
package frame

import (
	"errors"
	"fmt"

	"github.com/mgpai22/markreel/internal/logging"
	"github.com/mgpai22/markreel/internal/marker"
	"github.com/mgpai22/markreel/internal/timeline"
)

var ErrNotImplemented = errors.New("scripted overlays are not implemented")

// Snapshot is the overlay set for one frame. It must not be modified after
// it leaves the sequential stage.
type Snapshot struct {
	Index    int
	Time     float64
	Overlays []timeline.Event
	Assets   *AssetCache
}

// State is the mutable overlay tracker. It is not safe for concurrent use;
// only its AssetCache is shared.
type State struct {
	active []timeline.Event
	assets *AssetCache
	store  AssetStore
	logger *logging.Logger
}

func NewState(store AssetStore, logger *logging.Logger) *State {
	return &State{
		assets: NewAssetCache(),
		store:  store,
		logger: logging.OrNop(logger),
	}
}

// Assets returns the cache shared with every snapshot.
func (s *State) Assets() *AssetCache {
	return s.assets
}

// Active returns a copy of the currently open overlays.
func (s *State) Active() []timeline.Event {
	return append([]timeline.Event(nil), s.active...)
}

// Apply updates the open overlay set with one event.
//
// End events close every open overlay with the same uuid, whatever kind it is.
func (s *State) Apply(ev timeline.Event) error {
	switch d := ev.Directive.(type) {
	case marker.ImageStart:
		if !s.assets.Has(d.Slug) {
			data, err := s.store.Load(d.Slug)
			if err != nil {
				return err
			}
			s.assets.Put(d.Slug, data)
			s.logger.Debugw("Loaded asset", "slug", d.Slug, "bytes", len(data))
		}
		s.active = append(s.active, ev)
	case marker.ImageEnd, marker.ScriptEnd:
		kept := s.active[:0]
		for _, open := range s.active {
			if open.UUID != ev.UUID {
				kept = append(kept, open)
			}
		}
		s.active = kept
	case marker.ScriptStart:
		return fmt.Errorf("%w: uuid %q", ErrNotImplemented, ev.UUID)
	default:
		return fmt.Errorf("unknown directive %T", ev.Directive)
	}
	return nil
}

// Snapshot copies the open overlays for frame index at time t.
func (s *State) Snapshot(index int, t float64) Snapshot {
	return Snapshot{
		Index:    index,
		Time:     t,
		Overlays: s.Active(),
		Assets:   s.assets,
	}
}
