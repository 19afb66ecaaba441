package agent

import "errors"

// Kind classifies pipeline failures.
type Kind int

const (
	// Internal is an unexpected failure inside the agent itself.
	Internal Kind = iota

	// InvalidInput is empty audio or an empty transcription.
	InvalidInput

	UpstreamTranscription
	UpstreamCompletion
	UpstreamSynthesis
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case UpstreamTranscription:
		return "upstream_transcription_error"
	case UpstreamCompletion:
		return "upstream_completion_error"
	case UpstreamSynthesis:
		return "upstream_synthesis_error"
	default:
		return "internal_error"
	}
}

// IsUpstream reports whether k is a provider failure.
func (k Kind) IsUpstream() bool {
	return k == UpstreamTranscription || k == UpstreamCompletion || k == UpstreamSynthesis
}

// Error is the only error type returned by Agent operations.
type Error struct {
	Kind Kind

	// Detail is a human-readable message. For upstream kinds it includes the
	// provider error.
	Detail string

	Err error
}

func (e *Error) Error() string {
	// Internal details are generic, so report the cause instead.
	if e.Kind == Internal && e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func invalidInput(detail string) *Error {
	return &Error{Kind: InvalidInput, Detail: detail}
}

func internal(err error) *Error {
	return &Error{Kind: Internal, Detail: "Internal server error.", Err: err}
}
