// Package api is the HTTP client for the Chutes Whisper transcription
// service.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"

	"github.com/sirupsen/logrus"
)

const maxBackoff = 8 * time.Second

// APIError reports a failed or unreachable transcription request after all
// retries were spent.
type APIError struct {
	Msg string
	Err error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chutes api: %s: %v", e.Msg, e.Err)
	}
	return "chutes api: " + e.Msg
}

func (e *APIError) Unwrap() error { return e.Err }

// Segment is one timed piece of the transcription response.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`

	Temperature      *float64 `json:"temperature,omitempty"`
	AvgLogprob       *float64 `json:"avg_logprob,omitempty"`
	CompressionRatio *float64 `json:"compression_ratio,omitempty"`
	NoSpeechProb     *float64 `json:"no_speech_prob,omitempty"`
}

// Result is the assembled transcription.
type Result struct {
	Text     string
	Segments []Segment
}

// Client posts audio to the Chutes Whisper endpoint with bounded retries.
type Client struct {
	cfg    *config.Config
	http   *http.Client
	logger *logrus.Logger

	// sleep is swappable in tests.
	sleep func(context.Context, time.Duration) error
}

// New returns a Client using the configured timeout.
func New(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.Chutes.TimeoutSeconds) * time.Second},
		logger: logger,
		sleep:  sleepCtx,
	}
}

type request struct {
	AudioB64 string `json:"audio_b64"`
	Language string `json:"language,omitempty"`
}

// TranscribeFile reads a WAV file and transcribes it.
func (c *Client) TranscribeFile(ctx context.Context, path, language string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &APIError{Msg: "read audio file", Err: err}
	}
	return c.Transcribe(ctx, data, language)
}

// Transcribe posts base64-encoded WAV bytes and assembles the response
// segments into one text.
func (c *Client) Transcribe(ctx context.Context, wavData []byte, language string) (*Result, error) {
	segments, err := c.post(ctx, request{
		AudioB64: base64.StdEncoding.EncodeToString(wavData),
		Language: language,
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return &Result{
		Text:     strings.TrimSpace(b.String()),
		Segments: segments,
	}, nil
}

// TestConnection performs a lightweight request to validate connectivity
// and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.post(ctx, request{})
	return err
}

func (c *Client) post(ctx context.Context, req request) ([]Segment, error) {
	attempts := c.cfg.Chutes.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &APIError{Msg: "encode request", Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		segments, err := c.once(ctx, body)
		if err == nil {
			return segments, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			backoff := min(time.Duration(1<<attempt)*time.Second, maxBackoff)
			c.logger.Warnf("transcription attempt %d/%d failed: %v (retrying in %s)", attempt, attempts, err, backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				break
			}
		}
	}
	return nil, &APIError{Msg: fmt.Sprintf("failed after %d attempts", attempts), Err: lastErr}
}

func (c *Client) once(ctx context.Context, body []byte) ([]Segment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Chutes.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Chutes.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %s: %s", resp.Status, firstLine(data))
	}

	// The API returns an array of segment objects.
	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("unexpected response format: %w", err)
	}
	return segments, nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
