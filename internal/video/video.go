// Package video muxes rendered frame images with the narration audio.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/markreel/internal/logging"
)

// DefaultPollInterval is how often a progress notice is logged while
// ffmpeg runs.
const DefaultPollInterval = 600 * time.Second

var ErrMuxerStart = errors.New("ffmpeg could not be started")

// holds options for a mux run
type MuxOptions struct {
	FramePattern string // printf-style frame path, e.g. work/%010d.png
	FrameRate    int
	AudioPath    string
	OutputPath   string
}

// Muxer runs ffmpeg once over the rendered frames.
type Muxer struct {
	ffmpegPath   string
	pollInterval time.Duration
	logger       *logging.Logger
	compile      func(*ffmpeg.Stream) *exec.Cmd
}

func NewMuxer(ffmpegPath string, pollInterval time.Duration, logger *logging.Logger) *Muxer {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Muxer{
		ffmpegPath:   ffmpegPath,
		pollInterval: pollInterval,
		logger:       logging.OrNop(logger),
		compile: func(s *ffmpeg.Stream) *exec.Cmd {
			return s.Compile()
		},
	}
}

// WithCompiler replaces how the ffmpeg stream becomes a process (for testing).
func (m *Muxer) WithCompiler(compile func(*ffmpeg.Stream) *exec.Cmd) {
	m.compile = compile
}

// Stream builds the ffmpeg graph: image sequence at the frame rate plus the
// audio track into the output file.
func (m *Muxer) Stream(opts MuxOptions) *ffmpeg.Stream {
	frames := ffmpeg.Input(opts.FramePattern, ffmpeg.KwArgs{"r": opts.FrameRate})
	audio := ffmpeg.Input(opts.AudioPath)

	stream := ffmpeg.Output([]*ffmpeg.Stream{frames, audio}, opts.OutputPath).
		OverWriteOutput()
	if m.ffmpegPath != "" {
		stream = stream.SetFfmpegPath(m.ffmpegPath)
	}
	return stream
}

// Mux starts ffmpeg and waits for it, logging a notice every poll interval.
// The poll never aborts the process; only ctx cancellation does.
func (m *Muxer) Mux(ctx context.Context, opts MuxOptions) error {
	if opts.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be positive, got %d", opts.FrameRate)
	}

	cmd := m.compile(m.Stream(opts))
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	m.logger.Infow("Transcoding",
		"frames", filepath.Dir(opts.FramePattern),
		"audio", opts.AudioPath,
		"output", opts.OutputPath,
	)
	m.logger.Debugw("ffmpeg command", "args", strings.Join(cmd.Args, " "))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrMuxerStart, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	started := time.Now()

	for {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr.String(), 5))
			}
			m.logger.Infow("Transcoding complete",
				"output", opts.OutputPath,
				"elapsed", time.Since(started).Round(time.Second).String(),
			)
			return nil
		case <-ticker.C:
			m.logger.Infow("ffmpeg is taking a while...",
				"elapsed", time.Since(started).Round(time.Second).String(),
			)
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-done
			return ctx.Err()
		}
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
