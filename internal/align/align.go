// Package align talks to a Gentle-compatible forced aligner and exposes the
// word timings it returns.
package align

import (
	"context"
	"errors"
)

var (
	ErrAlignmentUnavailable = errors.New("aligner unavailable")
	ErrAlignmentSchema      = errors.New("aligner response not understood")
)

// Outcome is the aligner's verdict for one word.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
)

// Phone is a phoneme timing within a word.
type Phone struct {
	Duration float64 `json:"duration"`
	Phone    string  `json:"phone"`
}

// Word is one entry of the aligner's word list. Offsets are rune indices
// into the transcript that was submitted.
type Word struct {
	Case        Outcome  `json:"case"`
	Start       *float64 `json:"start,omitempty"`
	End         *float64 `json:"end,omitempty"`
	StartOffset *int     `json:"startOffset,omitempty"`
	EndOffset   *int     `json:"endOffset,omitempty"`
	Word        *string  `json:"word,omitempty"`
	AlignedWord *string  `json:"alignedWord,omitempty"`
	Phones      []Phone  `json:"phones,omitempty"`
}

// Usable reports whether the word succeeded and carries both its time span
// and its character span.
func (w Word) Usable() bool {
	return w.Case == OutcomeSuccess &&
		w.Start != nil && w.End != nil &&
		w.StartOffset != nil && w.EndOffset != nil
}

// Text returns the transcript word, or the aligned word when absent.
func (w Word) Text() string {
	switch {
	case w.Word != nil:
		return *w.Word
	case w.AlignedWord != nil:
		return *w.AlignedWord
	default:
		return ""
	}
}

// Result is the decoded aligner response.
type Result struct {
	Status     string `json:"status,omitempty"`
	Transcript string `json:"transcript"`
	Words      []Word `json:"words"`
}

// Usable returns the usable words in aligner order.
func (r *Result) Usable() []Word {
	if r == nil {
		return nil
	}
	words := make([]Word, 0, len(r.Words))
	for _, w := range r.Words {
		if w.Usable() {
			words = append(words, w)
		}
	}
	return words
}

// Aligner produces word timings for a transcript spoken in an audio file.
type Aligner interface {
	Align(ctx context.Context, transcript, audioPath string) (*Result, error)
}
