// Package ffmpeg locates the ffmpeg and ffprobe executables.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

const (
	FFmpegEnv  = "MARKREEL_FFMPEG_PATH"
	FFprobeEnv = "MARKREEL_FFPROBE_PATH"
)

type lookup struct {
	once sync.Once
	path string
	err  error
}

var (
	ffmpegLookup  lookup
	ffprobeLookup lookup
)

// FFmpegPath returns the ffmpeg executable, resolved once per process.
func FFmpegPath() (string, error) {
	ffmpegLookup.once.Do(func() {
		ffmpegLookup.path, ffmpegLookup.err = resolve(FFmpegEnv, "ffmpeg")
	})
	return ffmpegLookup.path, ffmpegLookup.err
}

// FFprobePath returns the ffprobe executable, resolved once per process.
func FFprobePath() (string, error) {
	ffprobeLookup.once.Do(func() {
		ffprobeLookup.path, ffprobeLookup.err = resolve(FFprobeEnv, "ffprobe")
	})
	return ffprobeLookup.path, ffprobeLookup.err
}

// resolve prefers the environment override, then PATH.
func resolve(envVar, name string) (string, error) {
	if override := os.Getenv(envVar); override != "" {
		if !fileExists(override) {
			return "", fmt.Errorf("%s points to %s, which does not exist", envVar, override)
		}
		return override, nil
	}
	found, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH (set %s): %w", name, envVar, err)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
