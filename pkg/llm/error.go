// Package llm provides a Gemini generateContent client and its wire types.
package llm

import "fmt"

// APIError is the error envelope returned by the Gemini API.
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Error is returned for every failed completion.
type Error struct {
	// StatusCode is the HTTP status returned by the provider, 0 if none was received.
	StatusCode int

	// Malformed is set when the provider answered successfully but the body
	// did not have the expected shape.
	Malformed bool

	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := "completion failed"
	if e.Malformed {
		msg = "malformed completion response"
	}
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
