package llm

// Content is one message in a generateContent conversation.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Part is a piece of content. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}
