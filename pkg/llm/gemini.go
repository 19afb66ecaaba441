package llm

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
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 30 * time.Second
)

// Completer turns a prompt into a raw model completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures the Gemini client.
type Config struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	Timeout time.Duration

	// Generation is sent with every request when set.
	Generation *GenerationConfig
}

// Gemini calls the generateContent endpoint with a single-part prompt.
type Gemini struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGemini creates a new Gemini client.
func NewGemini(config Config, logger *zap.Logger) *Gemini {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Gemini{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Complete sends prompt as a single user content and returns the text of the
// first candidate, exactly as the model produced it.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	startTime := time.Now()

	req := GenerateContentRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}
	if !g.config.Generation.IsZero() {
		req.GenerationConfig = g.config.Generation
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.config.BaseURL, g.config.Model)
	g.logger.Debug("sending completion request",
		zap.String("model", g.config.Model),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", &Error{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-goog-api-key", g.config.APIKey)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return "", &Error{Err: fmt.Errorf("do request: %w", err)}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", &Error{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", &Error{StatusCode: httpResp.StatusCode, Message: apiMessage(body)}
	}

	var resp GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{StatusCode: httpResp.StatusCode, Malformed: true, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	text, ok := resp.Text()
	if !ok {
		msg := "response has no candidate text"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			msg += " (prompt blocked: " + resp.PromptFeedback.BlockReason + ")"
		}
		return "", &Error{StatusCode: httpResp.StatusCode, Malformed: true, Message: msg}
	}

	g.logger.Info("completion received",
		zap.String("model", g.config.Model),
		zap.String("content_preview", truncate(text, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return text, nil
}

func apiMessage(body []byte) string {
	var e APIError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

var _ Completer = (*Gemini)(nil)
