// Package session keeps per-session conversation transcripts for the
// lifetime of the process.
package session

import (
	"context"

	"github.com/papercomputeco/voiceagent/pkg/conversation"
)

// Store defines the interface for reading and growing session transcripts.
// Transcripts only ever grow by appending; no method reorders or removes turns.
type Store interface {
	// GetOrCreate returns the transcript for id, creating an empty one if the
	// session has never been seen. This is the only way sessions come into
	// existence.
	GetOrCreate(ctx context.Context, id string) (conversation.Transcript, error)

	// Get returns the transcript for id. Returns ErrNotFound if the session
	// doesn't exist.
	Get(ctx context.Context, id string) (conversation.Transcript, error)

	// AppendTurn appends a turn to an existing session.
	// Returns ErrNotFound if the session doesn't exist.
	AppendTurn(ctx context.Context, id string, turn conversation.Turn) error

	// List returns a summary of every known session, ordered by id.
	List(ctx context.Context) ([]Summary, error)

	// Lock acquires the exclusive lock for id and returns the function that
	// releases it. Callers hold it across a read-modify-append sequence so
	// concurrent turns against one session serialize.
	Lock(id string) (unlock func())

	// Close releases any resources held by the store.
	Close() error
}

// Summary describes a session without its turns.
type Summary struct {
	SessionID string `json:"session_id"`
	Depth     int    `json:"depth"`
}

// ErrNotFound is returned when a session doesn't exist in the store.
type ErrNotFound struct {
	SessionID string
}

func (e ErrNotFound) Error() string {
	if e.SessionID == "" {
		return "session not found"
	}

	return "session not found: " + e.SessionID
}
