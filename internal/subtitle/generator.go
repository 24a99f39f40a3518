package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mgpai22/markreel/internal/align"
)

// DefaultGenerator implements Generator
type DefaultGenerator struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
	MinDuration     time.Duration
	MaxDuration     time.Duration
	// MaxPause ends a cue when the gap between two words exceeds it.
	MaxPause time.Duration
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{
		MaxCharsPerLine: 42, // standard subtitle line length
		MaxLinesPerSub:  2,  // most players support 2 lines
		MinDuration:     time.Second,
		MaxDuration:     7 * time.Second,
		MaxPause:        time.Second,
	}
}

// Generate groups the usable words into cues. Words without timing are
// skipped.
func (g *DefaultGenerator) Generate(words []align.Word) (*Subtitle, error) {
	segments := g.Segments(words)
	entries := make([]Entry, 0, len(segments))
	for i, seg := range segments {
		end := seg.EndTime
		if end-seg.StartTime < g.MinDuration {
			end = seg.StartTime + g.MinDuration
		}
		// never overlap the next cue
		if i+1 < len(segments) && end > segments[i+1].StartTime {
			end = segments[i+1].StartTime
		}
		entries = append(entries, Entry{
			Index:     i + 1,
			StartTime: seg.StartTime,
			EndTime:   end,
			Text:      g.formatText(seg.Text),
		})
	}
	return &Subtitle{Entries: entries, Format: FormatSRT}, nil
}

// Segments splits usable words into runs. A run ends after sentence
// punctuation, before a pause longer than MaxPause, or when adding the next
// word would exceed the cue size or MaxDuration.
func (g *DefaultGenerator) Segments(words []align.Word) []Segment {
	maxChars := g.MaxCharsPerLine * g.MaxLinesPerSub

	var (
		segments []Segment
		current  []string
		start    time.Duration
		end      time.Duration
		chars    int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		segments = append(segments, Segment{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(current, " "),
		})
		current = nil
		chars = 0
	}

	for _, w := range words {
		if !w.Usable() {
			continue
		}
		text := strings.TrimSpace(w.Text())
		if text == "" {
			continue
		}
		wStart := seconds(*w.Start)
		wEnd := seconds(*w.End)
		n := utf8.RuneCountInString(text)

		if len(current) > 0 {
			tooLong := chars+1+n > maxChars
			tooSlow := wEnd-start > g.MaxDuration
			paused := wStart-end > g.MaxPause
			if tooLong || tooSlow || paused {
				flush()
			}
		}

		if len(current) == 0 {
			start = wStart
		} else {
			chars++
		}
		current = append(current, text)
		chars += n
		end = wEnd

		if endsSentence(text) {
			flush()
		}
	}
	flush()
	return segments
}

func endsSentence(word string) bool {
	r, _ := utf8.DecodeLastRuneInString(word)
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// formatText wraps text onto two lines at the break closest to the middle
func (g *DefaultGenerator) formatText(text string) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)

	if runeCount <= g.MaxCharsPerLine {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		line1 := strings.Join(words[:bestSplit], " ")
		line2 := strings.Join(words[bestSplit:], " ")
		return line1 + "\n" + line2
	}

	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
