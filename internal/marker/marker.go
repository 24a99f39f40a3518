// Package marker extracts inline overlay markers from an annotated transcript
// and produces the spoken-word-only transcript sent to the aligner.
//
// Markers are JSON objects written straight into the text. They are delimited
// by brace depth alone; braces inside quoted JSON strings are not special.
package marker

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode"
)

var (
	ErrMarkerDecode       = errors.New("invalid marker")
	ErrUnterminatedMarker = errors.New("unterminated marker")

	errStrayBrace = errors.New("closing brace without an open marker")
)

// DecodeError reports a marker that could not be decoded. Offset is the rune
// index of the marker's opening brace in the annotated transcript.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bad marker at character %d of transcript: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrMarkerDecode, e.Err}
}

// Marker is one overlay directive found in the transcript.
type Marker struct {
	// Position is the rune index in the cleaned transcript where the marker sat.
	Position  int
	UUID      string
	Directive Directive
	// Absolute pins the event to a fixed time in seconds, bypassing alignment.
	Absolute *float64
	// Relative shifts the resolved time by this many seconds.
	Relative *float64
}

// Document is the result of parsing an annotated transcript.
type Document struct {
	Cleaned string
	Markers []Marker
}

type rawMarker struct {
	UUID     *string         `json:"uuid"`
	Info     json.RawMessage `json:"info"`
	Absolute *float64        `json:"absolute,omitempty"`
	Relative *float64        `json:"relative,omitempty"`
}

// Parse splits annotated text into the cleaned transcript and its markers.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	cleaned, err := scan(text, true, func(buf []rune, position int) error {
		m, err := decodeMarker(buf)
		if err != nil {
			return err
		}
		m.Position = position
		doc.Markers = append(doc.Markers, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc.Cleaned = cleaned
	return doc, nil
}

// Clean returns text with every marker removed and whitespace runs collapsed.
// It never fails: stray closing braces and an unterminated trailing marker are
// dropped. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	cleaned, _ := scan(text, false, nil)
	return cleaned
}

// scan walks text rune by rune. Runes inside a marker go to a buffer handed
// to onMarker once depth returns to zero; everything else is emitted with
// consecutive whitespace collapsed to the first rune of the run.
func scan(text string, strict bool, onMarker func(buf []rune, position int) error) (string, error) {
	var (
		out   []rune
		buf   []rune
		depth int
		start int
	)

	for i, r := range []rune(text) {
		switch {
		case r == '{':
			if depth == 0 {
				start = i
			}
			depth++
			buf = append(buf, r)
		case depth > 0:
			buf = append(buf, r)
			if r != '}' {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			if onMarker != nil {
				if err := onMarker(buf, len(out)); err != nil {
					return "", &DecodeError{Offset: start, Err: err}
				}
			}
			buf = buf[:0]
		case r == '}':
			if strict {
				return "", &DecodeError{Offset: i, Err: errStrayBrace}
			}
		default:
			if unicode.IsSpace(r) && len(out) > 0 && unicode.IsSpace(out[len(out)-1]) {
				continue
			}
			out = append(out, r)
		}
	}

	if strict && (depth != 0 || len(buf) != 0) {
		return "", fmt.Errorf("%w: marker opened at character %d", ErrUnterminatedMarker, start)
	}
	return string(out), nil
}

func decodeMarker(buf []rune) (Marker, error) {
	var raw rawMarker
	if err := json.Unmarshal([]byte(string(buf)), &raw); err != nil {
		return Marker{}, err
	}
	if raw.UUID == nil {
		return Marker{}, errors.New("missing uuid")
	}
	directive, err := decodeDirective(raw.Info)
	if err != nil {
		return Marker{}, err
	}
	return Marker{
		UUID:      *raw.UUID,
		Directive: directive,
		Absolute:  raw.Absolute,
		Relative:  raw.Relative,
	}, nil
}

// Encode renders m in the inline marker format. Position is not part of the
// encoding.
func Encode(m Marker) (string, error) {
	info, err := EncodeDirective(m.Directive)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(rawMarker{
		UUID:     &m.UUID,
		Info:     info,
		Absolute: m.Absolute,
		Relative: m.Relative,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
