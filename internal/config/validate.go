package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the project is renderable.
func (c *Config) Validate() error {
	if c.Audio == "" {
		return errors.New("audio must be set")
	}
	if c.Transcript == "" {
		return errors.New("transcript must be set")
	}
	if c.Output == "" {
		return errors.New("output must be set")
	}
	if c.Work == "" {
		return errors.New("work must be set")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	}
	if len(c.Resolution) != 2 || c.Resolution[0] <= 0 || c.Resolution[1] <= 0 {
		return fmt.Errorf("resolution must be [width, height] with positive values, got %v", c.Resolution)
	}
	if err := c.validateAligner(); err != nil {
		return err
	}
	if c.Render.Workers < 0 {
		return errors.New("render.workers must not be negative")
	}
	if c.Render.MuxPollSeconds <= 0 {
		return errors.New("render.mux_poll_seconds must be positive")
	}
	for slug, path := range c.Assets {
		if strings.TrimSpace(slug) == "" {
			return errors.New("assets: empty slug")
		}
		if path == "" {
			return fmt.Errorf("assets: %q has no path", slug)
		}
	}
	if c.Subtitles != "" {
		lower := strings.ToLower(c.Subtitles)
		if !strings.HasSuffix(lower, ".srt") && !strings.HasSuffix(lower, ".vtt") {
			return fmt.Errorf("subtitles must end in .srt or .vtt, got %s", c.Subtitles)
		}
	}
	return nil
}

func (c *Config) validateAligner() error {
	if c.Aligner.Endpoint == "" {
		return errors.New("aligner.endpoint must be set")
	}
	u, err := url.Parse(c.Aligner.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("aligner.endpoint is not a valid URL: %q", c.Aligner.Endpoint)
	}
	if c.Aligner.TimeoutSeconds <= 0 {
		return errors.New("aligner.timeout_seconds must be positive")
	}
	return nil
}
