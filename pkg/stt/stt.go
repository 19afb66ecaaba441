// Package stt transcribes uploaded audio with the AssemblyAI API.
package stt

import (
	"context"
	"fmt"
	"io"
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Error is returned for every failed transcription: a non-success status, a
// malformed body, a failed transcript job, a network failure or a timeout.
type Error struct {
	// Op is the step that failed: "upload", "submit" or "poll".
	Op string

	// StatusCode is the HTTP status returned by the provider, 0 if none was received.
	StatusCode int

	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := "transcription failed during " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
