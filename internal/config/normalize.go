package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/markreel/internal/align"
)

func (c *Config) normalize(baseDir string) error {
	if endpoint := strings.TrimSpace(os.Getenv(align.EndpointEnv)); endpoint != "" {
		c.Aligner.Endpoint = endpoint
	}
	c.Aligner.Endpoint = strings.TrimSpace(c.Aligner.Endpoint)

	for slug, path := range c.Used {
		if _, ok := c.Assets[slug]; !ok {
			if c.Assets == nil {
				c.Assets = map[string]string{}
			}
			c.Assets[slug] = path
		}
	}
	c.Used = nil

	var err error
	for _, field := range []*string{&c.Audio, &c.Transcript, &c.Output, &c.Work, &c.Subtitles} {
		if *field, err = resolveRelative(baseDir, *field); err != nil {
			return err
		}
	}
	for slug, path := range c.Assets {
		if c.Assets[slug], err = resolveRelative(baseDir, path); err != nil {
			return fmt.Errorf("asset %q: %w", slug, err)
		}
	}
	return nil
}

// resolveRelative expands ~ and anchors relative paths at the project file's
// directory. Empty stays empty.
func resolveRelative(baseDir, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(baseDir, expanded), nil
}

func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
