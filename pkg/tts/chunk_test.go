package tts_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/tts"
)

// recordingSynth records every call and fails on the call numbered failOn (1-based).
type recordingSynth struct {
	calls  []string
	voices []string
	failOn int
}

func (r *recordingSynth) Synthesize(_ context.Context, text, voiceID string) (string, error) {
	r.calls = append(r.calls, text)
	r.voices = append(r.voices, voiceID)
	if len(r.calls) == r.failOn {
		return "", &tts.Error{Message: "boom"}
	}
	return fmt.Sprintf("https://audio.example/%d.mp3", len(r.calls)), nil
}

var _ = Describe("Split", func() {
	It("keeps short text in one slice", func() {
		Expect(tts.Split("hello", 3000)).To(Equal([]string{"hello"}))
	})

	It("keeps text of exactly the chunk size in one slice", func() {
		Expect(tts.Split(strings.Repeat("a", 3000), 3000)).To(HaveLen(1))
	})

	It("returns empty text as a single empty slice", func() {
		Expect(tts.Split("", 3000)).To(Equal([]string{""}))
	})

	It("cuts 7000 characters into 3000, 3000 and 1000", func() {
		chunks := tts.Split(strings.Repeat("x", 7000), 3000)

		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0]).To(HaveLen(3000))
		Expect(chunks[1]).To(HaveLen(3000))
		Expect(chunks[2]).To(HaveLen(1000))
	})

	It("cuts without regard for word boundaries and preserves order", func() {
		Expect(tts.Split("hello world", 4)).To(Equal([]string{"hell", "o wo", "rld"}))
	})

	It("counts characters, not bytes", func() {
		chunks := tts.Split(strings.Repeat("é", 5), 2)

		Expect(chunks).To(Equal([]string{"éé", "éé", "é"}))
		for _, c := range chunks {
			Expect(utf8.ValidString(c)).To(BeTrue())
		}
	})
})

var _ = Describe("Chunker", func() {
	var (
		ctx   context.Context
		synth *recordingSynth
	)

	BeforeEach(func() {
		ctx = context.Background()
		synth = &recordingSynth{}
	})

	It("makes a single call for short text", func() {
		urls, err := tts.NewChunker(synth, 3000, zap.NewNop()).SynthesizeAll(ctx, "hello", "en-US-amara")
		Expect(err).NotTo(HaveOccurred())
		Expect(urls).To(Equal([]string{"https://audio.example/1.mp3"}))
		Expect(synth.voices).To(Equal([]string{"en-US-amara"}))
	})

	It("issues exactly three calls for 7000 characters, in order", func() {
		text := strings.Repeat("a", 3000) + strings.Repeat("b", 3000) + strings.Repeat("c", 1000)

		urls, err := tts.NewChunker(synth, 3000, zap.NewNop()).SynthesizeAll(ctx, text, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(urls).To(Equal([]string{
			"https://audio.example/1.mp3",
			"https://audio.example/2.mp3",
			"https://audio.example/3.mp3",
		}))

		Expect(synth.calls).To(HaveLen(3))
		Expect(synth.calls[0]).To(Equal(strings.Repeat("a", 3000)))
		Expect(synth.calls[1]).To(Equal(strings.Repeat("b", 3000)))
		Expect(synth.calls[2]).To(Equal(strings.Repeat("c", 1000)))
	})

	It("uses the default chunk size when none is given", func() {
		_, err := tts.NewChunker(synth, 0, zap.NewNop()).SynthesizeAll(ctx, strings.Repeat("a", tts.DefaultChunkSize+1), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(synth.calls).To(HaveLen(2))
	})

	It("stops at the first failing chunk", func() {
		synth.failOn = 2

		_, err := tts.NewChunker(synth, 10, zap.NewNop()).SynthesizeAll(ctx, strings.Repeat("a", 35), "")
		Expect(err).To(MatchError(ContainSubstring("chunk 2 of 4")))
		Expect(synth.calls).To(HaveLen(2))

		var ttsErr *tts.Error
		Expect(errors.As(err, &ttsErr)).To(BeTrue())
	})
})
