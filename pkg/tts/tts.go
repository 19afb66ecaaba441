// Package tts synthesizes speech with the Murf API and applies the chunking
// policy for long replies.
package tts

import (
	"context"
	"fmt"
)

// Synthesizer converts text into a hosted audio file and returns its URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (string, error)
}

// Error is returned for every failed synthesis.
type Error struct {
	// StatusCode is the HTTP status returned by the provider, 0 if none was received.
	StatusCode int

	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := "speech synthesis failed"
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
