package align

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResponse = `{
	"transcript": "Hello world ",
	"words": [
		{"case": "success", "start": 0.0, "end": 0.5, "startOffset": 0, "endOffset": 5,
		 "word": "Hello", "alignedWord": "hello",
		 "phones": [{"duration": 0.1, "phone": "hh_B"}]},
		{"case": "not-found-in-audio", "startOffset": 6, "endOffset": 11, "word": "world"},
		{"case": "success", "start": 0.6, "end": 1.0, "startOffset": 6, "endOffset": 11, "word": "world"}
	]
}`

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0644); err != nil {
		t.Fatalf("failed to write audio: %v", err)
	}
	return path
}

func TestGentleAlignerSendsMultipartForm(t *testing.T) {
	var gotTranscript, gotAudio, gotFilename string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Query().Get("async") != "false" {
			t.Errorf("expected async=false, got %q", r.URL.RawQuery)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		gotTranscript = r.FormValue("transcript")
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("audio field: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotAudio = string(data)
		gotFilename = header.Filename

		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer server.Close()

	aligner := NewGentleAligner(GentleConfig{Endpoint: server.URL + "/transcriptions?async=false"})
	result, err := aligner.Align(context.Background(), "Hello world ", writeAudio(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotTranscript != "Hello world " {
		t.Errorf("transcript field = %q", gotTranscript)
	}
	if gotAudio != "RIFFfake" || gotFilename != "voice.wav" {
		t.Errorf("audio field = %q (%s)", gotAudio, gotFilename)
	}
	if len(result.Words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(result.Words))
	}
	usable := result.Usable()
	if len(usable) != 2 {
		t.Fatalf("expected 2 usable words, got %d", len(usable))
	}
	if usable[1].Text() != "world" || *usable[1].Start != 0.6 {
		t.Errorf("unexpected second usable word %+v", usable[1])
	}
	if len(result.Words[0].Phones) != 1 || result.Words[0].Phones[0].Phone != "hh_B" {
		t.Errorf("phones not decoded: %+v", result.Words[0].Phones)
	}
}

func TestGentleAlignerErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: ErrAlignmentUnavailable,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>nope</html>")
			},
			wantErr: ErrAlignmentSchema,
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"words": [{"case": 12}]}`)
			},
			wantErr: ErrAlignmentSchema,
		},
		{
			name: "missing words",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"transcript": "x"}`)
			},
			wantErr: ErrAlignmentSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			aligner := NewGentleAligner(GentleConfig{Endpoint: server.URL})
			_, err := aligner.Align(context.Background(), "x", writeAudio(t))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGentleAlignerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	aligner := NewGentleAligner(GentleConfig{Endpoint: url})
	_, err := aligner.Align(context.Background(), "x", writeAudio(t))
	if !errors.Is(err, ErrAlignmentUnavailable) {
		t.Fatalf("expected ErrAlignmentUnavailable, got %v", err)
	}
}

func TestGentleAlignerMissingAudio(t *testing.T) {
	aligner := NewGentleAligner(GentleConfig{})
	_, err := aligner.Align(context.Background(), "x", filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil || !strings.Contains(err.Error(), "open audio") {
		t.Fatalf("expected open audio error, got %v", err)
	}
	if aligner.Endpoint() != DefaultEndpoint {
		t.Errorf("endpoint = %q, want default", aligner.Endpoint())
	}
}

func TestWordUsable(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }

	tests := []struct {
		name string
		word Word
		want bool
	}{
		{"complete", Word{Case: OutcomeSuccess, Start: f(0), End: f(1), StartOffset: i(0), EndOffset: i(3)}, true},
		{"failed case", Word{Case: "not-found-in-audio", Start: f(0), End: f(1), StartOffset: i(0), EndOffset: i(3)}, false},
		{"no start", Word{Case: OutcomeSuccess, End: f(1), StartOffset: i(0), EndOffset: i(3)}, false},
		{"no end offset", Word{Case: OutcomeSuccess, Start: f(0), End: f(1), StartOffset: i(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.word.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}
