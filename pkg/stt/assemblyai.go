package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://api.assemblyai.com"
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = time.Second
)

// Transcript job statuses reported by AssemblyAI.
const (
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusError      = "error"
)

// Config configures the AssemblyAI client.
type Config struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds a whole transcription: upload, submit and polling.
	Timeout time.Duration

	// PollInterval is the wait between transcript status checks.
	PollInterval time.Duration
}

// AssemblyAI uploads audio, submits a transcript job and polls it until
// the job completes or fails.
type AssemblyAI struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Text   *string `json:"text"`
	Error  string  `json:"error"`
}

// NewAssemblyAI creates a new AssemblyAI client.
func NewAssemblyAI(config Config, logger *zap.Logger) *AssemblyAI {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	return &AssemblyAI{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Transcribe returns the text of the given audio. An empty string is a valid
// result for silent or unintelligible audio.
func (a *AssemblyAI) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	startTime := time.Now()

	var upload uploadResponse
	if err := a.do(ctx, "upload", http.MethodPost, "/v2/upload", "application/octet-stream", audio, &upload); err != nil {
		return "", err
	}
	if upload.UploadURL == "" {
		return "", &Error{Op: "upload", Message: "response is missing upload_url"}
	}

	body, err := json.Marshal(transcriptRequest{AudioURL: upload.UploadURL})
	if err != nil {
		return "", &Error{Op: "submit", Err: err}
	}

	var job transcriptResponse
	if err := a.do(ctx, "submit", http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(body), &job); err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", &Error{Op: "submit", Message: "response is missing transcript id"}
	}

	a.logger.Debug("transcript job submitted",
		zap.String("transcript_id", job.ID),
		zap.String("status", job.Status),
	)

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		switch job.Status {
		case statusCompleted:
			text := ""
			if job.Text != nil {
				text = *job.Text
			}
			a.logger.Info("transcription completed",
				zap.String("transcript_id", job.ID),
				zap.Int("chars", len(text)),
				zap.Duration("duration", time.Since(startTime)),
			)
			return text, nil
		case statusError:
			return "", &Error{Op: "poll", Message: job.Error}
		case statusQueued, statusProcessing:
		default:
			return "", &Error{Op: "poll", Message: fmt.Sprintf("unexpected transcript status %q", job.Status)}
		}

		select {
		case <-ctx.Done():
			return "", &Error{Op: "poll", Message: "gave up waiting for transcript", Err: ctx.Err()}
		case <-ticker.C:
		}

		id := job.ID
		if err := a.do(ctx, "poll", http.MethodGet, "/v2/transcript/"+id, "", nil, &job); err != nil {
			return "", err
		}
		if job.ID == "" {
			job.ID = id
		}
	}
}

// do performs one API call and decodes a JSON body into out. Every failure
// comes back as *Error.
func (a *AssemblyAI) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", a.config.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return &Error{Op: op, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: providerMessage(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}

// providerMessage extracts the "error" field AssemblyAI puts in failure
// bodies, falling back to the raw body.
func providerMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

var _ Transcriber = (*AssemblyAI)(nil)
