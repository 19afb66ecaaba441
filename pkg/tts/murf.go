package tts

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
	DefaultBaseURL    = "https://api.murf.ai"
	DefaultVoice      = "en-US-natalie"
	DefaultFormat     = "MP3"
	DefaultSampleRate = 44100
	DefaultTimeout    = 30 * time.Second
)

// Config configures the Murf client.
type Config struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Voice is used when Synthesize is called without a voice id.
	Voice string

	Format     string
	SampleRate int
	Timeout    time.Duration
}

// Murf calls the /v1/speech/generate endpoint, which renders the audio and
// returns a hosted URL for it.
type Murf struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

type generateRequest struct {
	VoiceID    string `json:"voiceId"`
	Text       string `json:"text"`
	Format     string `json:"format"`
	SampleRate int    `json:"sampleRate"`
}

type generateResponse struct {
	AudioFile     string  `json:"audioFile"`
	AudioLengthS  float64 `json:"audioLengthInSeconds,omitempty"`
	RemainingChar int     `json:"remainingCharacterCount,omitempty"`
}

// NewMurf creates a new Murf client.
func NewMurf(config Config, logger *zap.Logger) *Murf {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Voice == "" {
		config.Voice = DefaultVoice
	}
	if config.Format == "" {
		config.Format = DefaultFormat
	}
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Murf{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Synthesize renders text with voiceID, or the configured voice when voiceID
// is empty. Empty text is rejected without calling the provider.
func (m *Murf) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &Error{Message: "text is empty"}
	}
	if voiceID == "" {
		voiceID = m.config.Voice
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	startTime := time.Now()

	reqBody, err := json.Marshal(generateRequest{
		VoiceID:    voiceID,
		Text:       text,
		Format:     m.config.Format,
		SampleRate: m.config.SampleRate,
	})
	if err != nil {
		return "", &Error{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/v1/speech/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", &Error{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", m.config.APIKey)

	httpResp, err := m.httpClient.Do(httpReq)
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
		return "", &Error{StatusCode: httpResp.StatusCode, Message: providerMessage(body)}
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if resp.AudioFile == "" {
		return "", &Error{StatusCode: httpResp.StatusCode, Message: "no audioFile in response"}
	}

	m.logger.Info("speech generated",
		zap.String("voice_id", voiceID),
		zap.Int("chars", len(text)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return resp.AudioFile, nil
}

// providerMessage extracts Murf's "errorMessage" field, falling back to the raw body.
func providerMessage(body []byte) string {
	var e struct {
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.ErrorMessage != "" {
			return e.ErrorMessage
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(body))
}

var _ Synthesizer = (*Murf)(nil)
