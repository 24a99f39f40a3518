// Package subtitle turns aligned transcript words into caption tracks.
package subtitle

import (
	"time"

	"github.com/mgpai22/markreel/internal/align"
)

// Entry is one caption cue.
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// Subtitle is a complete caption track.
type Subtitle struct {
	Entries []Entry
	Format  Format
}

// Format names a caption file format.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Generator groups aligned words into cues.
type Generator interface {
	Generate(words []align.Word) (*Subtitle, error)
}

// Segment is a run of consecutive spoken words.
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// Writer persists a caption track.
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}
