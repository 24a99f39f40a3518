package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mgpai22/markreel/internal/audio"
	"github.com/mgpai22/markreel/internal/ffmpeg"
	"github.com/mgpai22/markreel/internal/frame"
	"github.com/mgpai22/markreel/internal/render"
	"github.com/mgpai22/markreel/internal/subtitle"
	"github.com/mgpai22/markreel/internal/video"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the project to a video file",
	Long: `Render the project described by the project file.

The transcript's markers are aligned against the audio, each frame is
composited and written to the working directory, and ffmpeg muxes the
frames with the audio into the output file.

Examples:
  markreel render
  markreel render -p talks/intro.toml --workers 4
  markreel render --skip-mux -o preview.mp4`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().
		StringP("output", "o", "", "Output video path (overrides the project file)")
	renderCmd.Flags().
		Int("workers", 0, "Number of frame encoding workers (default: project setting or CPU count)")
	renderCmd.Flags().
		Bool("skip-mux", false, "Render frames only; do not run ffmpeg")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.With("run_id", uuid.NewString())
	started := time.Now()

	cfg, err := loadProject(log)
	if err != nil {
		return err
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output = output
	}
	workers := cfg.Render.Workers
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		workers = n
	}
	skipMux, _ := cmd.Flags().GetBool("skip-mux")

	if !audio.IsAudioFile(cfg.Audio) {
		log.Warnw("Audio file has an unexpected extension", "audio", cfg.Audio)
	}

	log.Infow("Starting render",
		"transcript", cfg.Transcript,
		"audio", cfg.Audio,
		"output", cfg.Output,
		"rate", cfg.Rate,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width(), cfg.Height()),
	)

	p, err := buildPlan(ctx, cfg, newAligner(cfg, log), log)
	if err != nil {
		return err
	}
	tl := p.result.Timeline

	prober := audio.NewProber("")
	if length, err := prober.Duration(ctx, cfg.Audio); err != nil {
		log.Warnw("Could not read audio duration", "error", err)
	} else if tl.Duration > length.Seconds() {
		log.Warnw("Video will run past the end of the audio",
			"video_seconds", tl.Duration,
			"audio_seconds", length.Seconds(),
		)
	}

	pipeline := render.New(render.Config{
		WorkDir: cfg.Work,
		Workers: workers,
		Store:   frame.FileStore(cfg.Assets),
		Logger:  log,
	})
	stats, err := pipeline.Render(ctx, tl)
	if err != nil {
		return fmt.Errorf("failed to render frames: %w", err)
	}

	if cfg.Subtitles != "" {
		sub, err := subtitle.WriteFile(subtitle.NewDefaultGenerator(), p.alignment.Words, cfg.Subtitles)
		if err != nil {
			return err
		}
		log.Infow("Captions written", "path", cfg.Subtitles, "cues", len(sub.Entries))
	}

	if skipMux {
		log.Infow("Skipping mux", "frames", stats.Frames, "work_dir", cfg.Work)
		return nil
	}

	ffmpegPath, err := ffmpeg.FFmpegPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	muxer := video.NewMuxer(ffmpegPath, cfg.MuxPollInterval(), log)
	if err := muxer.Mux(ctx, video.MuxOptions{
		FramePattern: pipeline.Pattern(),
		FrameRate:    cfg.Rate,
		AudioPath:    cfg.Audio,
		OutputPath:   cfg.Output,
	}); err != nil {
		return fmt.Errorf("failed to mux video: %w", err)
	}

	log.Infow("Render complete",
		"output", cfg.Output,
		"frames", stats.Frames,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	return nil
}
