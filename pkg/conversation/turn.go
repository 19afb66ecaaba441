// Package conversation holds the turn-based transcript model shared by the
// session store and the agent pipeline.
package conversation

import "strings"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label returns the speaker label used when rendering a prompt.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Turn is a single utterance in a conversation. Turns are values and are
// never modified after they are appended to a transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered history of turns for one session, oldest first.
type Transcript []Turn

// RenderPrompt renders the transcript as alternating labeled lines, e.g.
//
//	User: hello
//	Assistant: hi there
//
// It is recomputed on every call and never cached.
func RenderPrompt(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role.Label())
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}
