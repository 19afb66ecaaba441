package api

import (
	"github.com/papercomputeco/voiceagent/pkg/conversation"
	"github.com/papercomputeco/voiceagent/pkg/session"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// TextInput is the body of POST /generate-audio/.
type TextInput struct {
	Text string `json:"text"`
}

// AudioResponse is the body of POST /generate-audio/.
type AudioResponse struct {
	AudioURL  string   `json:"audio_url,omitempty"`
	AudioURLs []string `json:"audio_urls,omitempty"`
}

// UploadEchoResponse is the body of POST /upload-echo/.
type UploadEchoResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// TranscribeResponse is the body of POST /transcribe/file.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// TTSEchoResponse is the body of POST /tts/echo.
type TTSEchoResponse struct {
	Transcript string   `json:"transcript"`
	AudioURL   string   `json:"audio_url,omitempty"`
	AudioURLs  []string `json:"audio_urls,omitempty"`
}

// QueryResponse is the body of POST /llm/query.
type QueryResponse struct {
	Transcript string   `json:"transcript"`
	LLMText    string   `json:"llm_text"`
	AudioURL   string   `json:"audio_url,omitempty"`
	AudioURLs  []string `json:"audio_urls,omitempty"`
}

// ChatResponse is the body of POST /agent/chat/:session_id.
type ChatResponse struct {
	Transcript  string              `json:"transcript"`
	LLMText     string              `json:"llm_text"`
	AudioURL    string              `json:"audio_url,omitempty"`
	AudioURLs   []string            `json:"audio_urls,omitempty"`
	ChatHistory []conversation.Turn `json:"chat_history"`
}

// HistoryResponse is the body of GET /agent/history/:session_id.
type HistoryResponse struct {
	SessionID   string              `json:"session_id"`
	ChatHistory []conversation.Turn `json:"chat_history"`
	Depth       int                 `json:"depth"`
}

// SessionsResponse is the body of GET /agent/sessions.
type SessionsResponse struct {
	Count    int               `json:"count"`
	Sessions []session.Summary `json:"sessions"`
}

// audioFields fills the single or multi URL field, whichever applies.
func audioFields(urls []string) (single string, multi []string) {
	if len(urls) == 1 {
		return urls[0], nil
	}
	return "", urls
}
