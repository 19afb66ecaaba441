package tts

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultChunkSize is the longest text, in characters, sent in one
// synthesis call.
const DefaultChunkSize = 3000

// Split cuts text into consecutive slices of at most size characters. It
// does not look for word or sentence boundaries. Text that fits, including
// empty text, comes back as a single slice.
func Split(text string, size int) []string {
	if size <= 0 || utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, n := 0, 0
	for i := range text {
		if n == size {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, text[start:])
}

// Chunker applies the chunking policy on top of a Synthesizer: one provider
// call per slice, results in slice order.
type Chunker struct {
	synth  Synthesizer
	size   int
	logger *zap.Logger
}

// NewChunker creates a Chunker. A size of zero or less uses DefaultChunkSize.
func NewChunker(synth Synthesizer, size int, logger *zap.Logger) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{synth: synth, size: size, logger: logger}
}

// SynthesizeAll returns one audio URL per chunk of text. The first failing
// chunk aborts the rest.
func (c *Chunker) SynthesizeAll(ctx context.Context, text, voiceID string) ([]string, error) {
	chunks := Split(text, c.size)
	if len(chunks) > 1 {
		c.logger.Debug("splitting text for synthesis",
			zap.Int("chars", utf8.RuneCountInString(text)),
			zap.Int("chunks", len(chunks)),
		)
	}

	urls := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		url, err := c.synth.Synthesize(ctx, chunk, voiceID)
		if err != nil {
			if len(chunks) > 1 {
				return nil, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
			}
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
