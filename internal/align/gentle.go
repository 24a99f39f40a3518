package align

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/markreel/internal/logging"
)

const (
	DefaultEndpoint = "http://localhost:8765/transcriptions?async=false"
	// EndpointEnv overrides the configured endpoint.
	EndpointEnv = "GENTLE_LOCATION"

	defaultTimeout = 30 * time.Minute
)

// GentleConfig configures a GentleAligner.
type GentleConfig struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// GentleAligner posts transcript and audio to a Gentle server in
// synchronous mode.
type GentleAligner struct {
	endpoint string
	http     *http.Client
	logger   *logging.Logger
}

func NewGentleAligner(cfg GentleConfig) *GentleAligner {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &GentleAligner{
		endpoint: endpoint,
		http:     client,
		logger:   logging.OrNop(cfg.Logger).Named("aligner"),
	}
}

// Endpoint returns the URL requests are sent to.
func (a *GentleAligner) Endpoint() string {
	return a.endpoint
}

func (a *GentleAligner) Align(ctx context.Context, transcript, audioPath string) (*Result, error) {
	body, contentType, err := buildForm(transcript, audioPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrAlignmentUnavailable, err)
	}
	req.Header.Set("Content-Type", contentType)

	a.logger.Infow("Sending alignment request",
		"endpoint", a.endpoint,
		"transcript_chars", len([]rune(transcript)),
	)
	started := time.Now()

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlignmentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: %s", ErrAlignmentUnavailable, resp.Status, strings.TrimSpace(string(snippet)))
	}

	result, err := DecodeResult(resp.Body)
	if err != nil {
		return nil, err
	}

	a.logger.Infow("Alignment received",
		"words", len(result.Words),
		"usable", len(result.Usable()),
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	return result, nil
}

// DecodeResult parses an aligner response body.
func DecodeResult(r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlignmentSchema, err)
	}
	if result.Words == nil {
		return nil, fmt.Errorf("%w: missing words array", ErrAlignmentSchema)
	}
	return &result, nil
}

// buildForm reads the audio file into a multipart body with the transcript
// and audio fields.
func buildForm(transcript, audioPath string) (io.Reader, string, error) {
	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("transcript", transcript); err != nil {
		return nil, "", fmt.Errorf("write transcript field: %w", err)
	}
	part, err := form.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create audio field: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}
