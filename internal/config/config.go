// Package config loads the project file describing one render: transcript,
// audio, overlay assets and output settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Aligner configures the forced-alignment service.
type Aligner struct {
	Endpoint       string `toml:"endpoint" json:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

// Render configures frame generation and muxing.
type Render struct {
	Workers        int `toml:"workers" json:"workers"`
	MuxPollSeconds int `toml:"mux_poll_seconds" json:"mux_poll_seconds"`
}

// Config is one project.
type Config struct {
	Audio      string `toml:"audio" json:"audio"`
	Transcript string `toml:"transcript" json:"transcript"`
	Output     string `toml:"output" json:"output"`
	Work       string `toml:"work" json:"work"`
	Rate       int    `toml:"rate" json:"rate"`
	Resolution []int  `toml:"resolution" json:"resolution"`
	// Subtitles optionally names an .srt or .vtt caption file to write.
	Subtitles string `toml:"subtitles" json:"subtitles"`

	// Assets maps overlay slugs to image files.
	Assets map[string]string `toml:"assets" json:"assets"`
	// Used is the legacy spelling of Assets in spec.json projects.
	Used map[string]string `toml:"-" json:"used"`

	Aligner Aligner `toml:"aligner" json:"aligner"`
	Render  Render  `toml:"render" json:"render"`
}

// Width is the output frame width in pixels.
func (c *Config) Width() int { return c.Resolution[0] }

// Height is the output frame height in pixels.
func (c *Config) Height() int { return c.Resolution[1] }

// AlignerTimeout returns the request timeout for the aligner.
func (c *Config) AlignerTimeout() time.Duration {
	return time.Duration(c.Aligner.TimeoutSeconds) * time.Second
}

// MuxPollInterval returns how often muxer progress is reported.
func (c *Config) MuxPollInterval() time.Duration {
	return time.Duration(c.Render.MuxPollSeconds) * time.Second
}

// DefaultPaths lists the project files tried when none is given.
var DefaultPaths = []string{"markreel.toml", "spec.json"}

// Load reads, normalizes and validates a project file. An empty path tries
// DefaultPaths in the working directory. It returns the resolved path.
func Load(path string) (*Config, string, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("read project: %w", err)
	}

	cfg := Default()
	if err := decode(resolved, data, &cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.normalize(filepath.Dir(resolved)); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse project: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse project: %w", err)
		}
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", fmt.Errorf("stat project: %w", err)
		}
		return expanded, nil
	}

	for _, candidate := range DefaultPaths {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err == nil && !info.IsDir() {
			return abs, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat project: %w", err)
		}
	}
	return "", fmt.Errorf("no project file found (tried %s); pass --project", strings.Join(DefaultPaths, ", "))
}
