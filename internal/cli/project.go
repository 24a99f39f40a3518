package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mgpai22/markreel/internal/align"
	"github.com/mgpai22/markreel/internal/config"
	"github.com/mgpai22/markreel/internal/logging"
	"github.com/mgpai22/markreel/internal/marker"
	"github.com/mgpai22/markreel/internal/timeline"
)

// plan is everything known before the first frame is drawn.
type plan struct {
	document  *marker.Document
	alignment *align.Result
	result    *timeline.Result
}

func loadProject(log *logging.Logger) (*config.Config, error) {
	cfg, path, err := config.Load(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	log.Debugw("Project loaded", "path", path, "assets", len(cfg.Assets))
	return cfg, nil
}

func newAligner(cfg *config.Config, log *logging.Logger) align.Aligner {
	return align.NewGentleAligner(align.GentleConfig{
		Endpoint: cfg.Aligner.Endpoint,
		Timeout:  cfg.AlignerTimeout(),
		Logger:   log,
	})
}

func readTranscript(path string) (*marker.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	doc, err := marker.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return doc, nil
}

// buildPlan parses the transcript, aligns the cleaned text against the
// audio and resolves every marker to a timestamp.
func buildPlan(ctx context.Context, cfg *config.Config, aligner align.Aligner, log *logging.Logger) (*plan, error) {
	doc, err := readTranscript(cfg.Transcript)
	if err != nil {
		return nil, err
	}
	log.Infow("Transcript parsed",
		"markers", len(doc.Markers),
		"cleaned_chars", len([]rune(doc.Cleaned)),
	)

	alignment, err := aligner.Align(ctx, doc.Cleaned, cfg.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to align transcript: %w", err)
	}

	result, err := timeline.NewBuilder(log).Build(doc.Markers, alignment, timeline.Options{
		FrameRate: cfg.Rate,
		Width:     cfg.Width(),
		Height:    cfg.Height(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}
	if n := len(result.Unresolved); n > 0 {
		log.Warnw("Some markers could not be placed and were dropped", "count", n)
	}

	return &plan{document: doc, alignment: alignment, result: result}, nil
}
