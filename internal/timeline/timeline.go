// Package timeline reconciles transcript markers with aligner word timings
// and produces the time-ordered event list the renderer executes.
package timeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mgpai22/markreel/internal/align"
	"github.com/mgpai22/markreel/internal/logging"
	"github.com/mgpai22/markreel/internal/marker"
)

// TailPad is added to the end of the last spoken word to get the duration.
const TailPad = 2.0

// matchTolerance lets a marker sit just past a word's end, after trailing
// punctuation or whitespace.
const matchTolerance = 2

var ErrNoUsableWords = errors.New("aligner returned no usable words")

// Event is one timestamped overlay instruction.
type Event struct {
	Timestamp float64
	UUID      string
	Directive marker.Directive
}

// Timeline is the complete, sorted render plan.
type Timeline struct {
	Events    []Event
	FrameRate int
	// Duration in seconds.
	Duration float64
	Width    int
	Height   int
}

// Frames returns how many frames the render loop produces.
func (t *Timeline) Frames() int {
	if t.FrameRate <= 0 {
		return 0
	}
	n := 0
	for i := 1; float64(i)/float64(t.FrameRate) < t.Duration; i++ {
		n++
	}
	return n
}

// Options carries the output settings copied into the Timeline.
type Options struct {
	FrameRate int
	Width     int
	Height    int
}

// Result bundles the timeline with markers that could not be placed.
type Result struct {
	Timeline   *Timeline
	Unresolved []marker.Marker
}

type Builder struct {
	logger *logging.Logger
}

func NewBuilder(logger *logging.Logger) *Builder {
	return &Builder{logger: logging.OrNop(logger)}
}

// Build resolves every marker to a timestamp. A marker carrying Absolute
// ignores alignment. Otherwise the first usable word whose span covers the
// marker position supplies the start time; failing that the most recent
// preceding word's end time is carried forward. Markers before any spoken
// word are dropped and reported in Result.Unresolved. Relative is added last.
func (b *Builder) Build(markers []marker.Marker, alignment *align.Result, opts Options) (*Result, error) {
	words := alignment.Usable()
	if len(words) == 0 {
		return nil, ErrNoUsableWords
	}

	result := &Result{
		Timeline: &Timeline{
			Events:    make([]Event, 0, len(markers)),
			FrameRate: opts.FrameRate,
			Duration:  *words[len(words)-1].End + TailPad,
			Width:     opts.Width,
			Height:    opts.Height,
		},
	}

	for _, m := range markers {
		ts, ok := resolve(m, words)
		if !ok {
			b.logger.Warnw("No aligned word corresponds to marker, dropping it",
				"uuid", m.UUID,
				"kind", string(m.Directive.Kind()),
				"position", m.Position,
			)
			result.Unresolved = append(result.Unresolved, m)
			continue
		}
		result.Timeline.Events = append(result.Timeline.Events, Event{
			Timestamp: ts,
			UUID:      m.UUID,
			Directive: m.Directive,
		})
	}

	sort.SliceStable(result.Timeline.Events, func(i, j int) bool {
		return result.Timeline.Events[i].Timestamp < result.Timeline.Events[j].Timestamp
	})

	b.logger.Infow("Timeline built",
		"events", len(result.Timeline.Events),
		"unresolved", len(result.Unresolved),
		"duration", fmt.Sprintf("%.2fs", result.Timeline.Duration),
	)
	return result, nil
}

func resolve(m marker.Marker, words []align.Word) (float64, bool) {
	var relative float64
	if m.Relative != nil {
		relative = *m.Relative
	}
	if m.Absolute != nil {
		return *m.Absolute + relative, true
	}

	word, ok := matchWord(m.Position, words)
	if !ok {
		return 0, false
	}
	return *word.Start + relative, true
}

// matchWord picks the word a marker at position p belongs to. words must be
// usable.
func matchWord(p int, words []align.Word) (align.Word, bool) {
	for _, w := range words {
		if *w.StartOffset < p && *w.EndOffset+matchTolerance >= p {
			return w, true
		}
	}
	return carryForward(p, words)
}

// carryForward builds a synthetic word pinned to the end of the last word
// that starts before p.
func carryForward(p int, words []align.Word) (align.Word, bool) {
	var prior *align.Word
	for i := range words {
		if *words[i].StartOffset < p {
			prior = &words[i]
		}
	}
	if prior == nil {
		return align.Word{}, false
	}
	end, endOffset := *prior.End, *prior.EndOffset
	return align.Word{
		Case:        align.OutcomeSuccess,
		Start:       &end,
		End:         &end,
		StartOffset: &endOffset,
		EndOffset:   &endOffset,
	}, true
}
