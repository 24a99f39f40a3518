// Package render drives frame generation: a sequential stage applies
// timeline events to the overlay state, and a worker pool composites and
// writes each frame.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/mgpai22/markreel/internal/composite"
	"github.com/mgpai22/markreel/internal/frame"
	"github.com/mgpai22/markreel/internal/logging"
	"github.com/mgpai22/markreel/internal/timeline"
)

const (
	// FramePattern is the printf pattern for frame file names, shared with ffmpeg.
	FramePattern = "%010d.png"
	lockFileName = ".markreel.lock"
)

var (
	ErrWorkDirLocked = errors.New("working directory is in use by another render")

	frameFileRE = regexp.MustCompile(`^\d{10}\.png$`)
)

// FrameName returns the file name of frame index.
func FrameName(index int) string {
	return fmt.Sprintf(FramePattern, index)
}

// Config configures a Pipeline.
type Config struct {
	WorkDir string
	// Workers defaults to the number of CPUs.
	Workers int
	Store   frame.AssetStore
	Logger  *logging.Logger
}

// Stats summarizes a render.
type Stats struct {
	Frames  int
	Events  int
	Assets  int
	Elapsed time.Duration
}

type Pipeline struct {
	workDir string
	workers int
	store   frame.AssetStore
	logger  *logging.Logger
	encoder png.Encoder
}

func New(cfg Config) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		workDir: cfg.WorkDir,
		workers: workers,
		store:   cfg.Store,
		logger:  logging.OrNop(cfg.Logger).Named("render"),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// Pattern returns the frame path pattern for the muxer.
func (p *Pipeline) Pattern() string {
	return filepath.Join(p.workDir, FramePattern)
}

// Render writes one PNG per frame of tl into the working directory.
func (p *Pipeline) Render(ctx context.Context, tl *timeline.Timeline) (Stats, error) {
	if tl.FrameRate <= 0 {
		return Stats{}, fmt.Errorf("frame rate must be positive, got %d", tl.FrameRate)
	}
	if tl.Width <= 0 || tl.Height <= 0 {
		return Stats{}, fmt.Errorf("invalid resolution %dx%d", tl.Width, tl.Height)
	}

	if err := os.MkdirAll(p.workDir, 0755); err != nil {
		return Stats{}, fmt.Errorf("failed to create working directory: %w", err)
	}
	lock := flock.New(filepath.Join(p.workDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Stats{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return Stats{}, fmt.Errorf("%w: %s", ErrWorkDirLocked, p.workDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warnw("Failed to release working directory lock", "error", err)
		}
	}()

	if err := p.removeStaleFrames(); err != nil {
		return Stats{}, err
	}

	p.logger.Infow("Rendering",
		"frames", tl.Frames(),
		"events", len(tl.Events),
		"workers", p.workers,
		"resolution", fmt.Sprintf("%dx%d", tl.Width, tl.Height),
		"work_dir", p.workDir,
	)
	started := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
		written  atomic.Int64
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	compositor := composite.New(tl.Width, tl.Height)
	snapshots := make(chan frame.Snapshot, 2*p.workers)

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for snap := range snapshots {
				if ctx.Err() != nil {
					continue
				}
				if err := p.writeFrame(compositor, snap); err != nil {
					fail(err)
					continue
				}
				if n := written.Add(1); n%500 == 0 {
					p.logger.Debugw("Frames written", "count", n)
				}
			}
		}()
	}

	state := frame.NewState(p.store, p.logger)
	if err := p.produce(ctx, tl, state, snapshots); err != nil {
		fail(err)
	}
	close(snapshots)
	wg.Wait()

	if firstErr != nil {
		return Stats{}, firstErr
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Frames:  int(written.Load()),
		Events:  len(tl.Events),
		Assets:  state.Assets().Len(),
		Elapsed: time.Since(started),
	}
	p.logger.Infow("Frames rendered",
		"frames", stats.Frames,
		"assets", stats.Assets,
		"elapsed", stats.Elapsed.Round(time.Millisecond).String(),
	)
	return stats, nil
}

// produce runs the sequential stage. Every event earlier than a frame's
// time is applied before that frame's snapshot is sent, so all cache
// inserts for a frame happen before any worker can read it.
func (p *Pipeline) produce(ctx context.Context, tl *timeline.Timeline, state *frame.State, out chan<- frame.Snapshot) error {
	cursor := 0
	for index := 1; ; index++ {
		t := float64(index) / float64(tl.FrameRate)
		if t >= tl.Duration {
			return nil
		}

		for cursor < len(tl.Events) && tl.Events[cursor].Timestamp < t {
			ev := tl.Events[cursor]
			if err := state.Apply(ev); err != nil {
				return fmt.Errorf("apply event %q at %.3fs: %w", ev.UUID, ev.Timestamp, err)
			}
			cursor++
		}

		select {
		case out <- state.Snapshot(index, t):
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *Pipeline) writeFrame(compositor *composite.Compositor, snap frame.Snapshot) error {
	img, err := compositor.Compose(snap)
	if err != nil {
		return err
	}

	path := filepath.Join(p.workDir, FrameName(snap.Index))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output png: %w", err)
	}
	if err := p.encoder.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode frame %d: %w", snap.Index, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", snap.Index, err)
	}
	return nil
}

// removeStaleFrames deletes frames left by an earlier, longer render so
// ffmpeg does not pick them up.
func (p *Pipeline) removeStaleFrames() error {
	entries, err := os.ReadDir(p.workDir)
	if err != nil {
		return fmt.Errorf("failed to read working directory: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !frameFileRE.MatchString(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(p.workDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale frame: %w", err)
		}
		removed++
	}
	if removed > 0 {
		p.logger.Debugw("Removed stale frames", "count", removed)
	}
	return nil
}
