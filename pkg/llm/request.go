package llm

// GenerateContentRequest is the body of a Gemini generateContent call.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}
