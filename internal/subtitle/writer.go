package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/markreel/internal/align"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// writes the subtitle to an SRT file
func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	for i, entry := range sub.Entries {
		// index (1-based)
		fmt.Fprintf(&sb, "%d\n", i+1)

		// 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatTime(entry.StartTime, ','),
			formatTime(entry.EndTime, ','))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// writes the subtitle to a VTT file
func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for i, entry := range sub.Entries {
		// optional cue identifier
		fmt.Fprintf(&sb, "%d\n", i+1)

		// 00:00:00.000 --> 00:00:00.000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatTime(entry.StartTime, '.'),
			formatTime(entry.EndTime, '.'))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func formatTime(d time.Duration, sep rune) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// FormatFromExtension picks the caption format for a file name.
func FormatFromExtension(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported caption extension %q", ext)
	}
}

// WriteFile generates captions from words and writes them in the format
// implied by path's extension.
func WriteFile(g Generator, words []align.Word, path string) (*Subtitle, error) {
	format, err := FormatFromExtension(path)
	if err != nil {
		return nil, err
	}
	sub, err := g.Generate(words)
	if err != nil {
		return nil, fmt.Errorf("generate captions: %w", err)
	}
	sub.Format = format
	w, err := NewWriter(format)
	if err != nil {
		return nil, err
	}
	if err := w.Write(sub, path); err != nil {
		return nil, fmt.Errorf("write captions: %w", err)
	}
	return sub, nil
}
