package llm

// GenerationConfig contains model inference parameters.
type GenerationConfig struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"topP,omitempty"`        // Nucleus sampling threshold
	TopK        *int     `json:"topK,omitempty"`        // Top-k sampling

	// Length parameters
	MaxOutputTokens *int `json:"maxOutputTokens,omitempty"` // Max tokens to generate

	// Stop sequences
	StopSequences []string `json:"stopSequences,omitempty"`
}

// IsZero reports whether no parameter is set.
func (g *GenerationConfig) IsZero() bool {
	return g == nil || (g.Temperature == nil && g.TopP == nil && g.TopK == nil &&
		g.MaxOutputTokens == nil && len(g.StopSequences) == 0)
}
