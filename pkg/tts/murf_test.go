package tts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/tts"
)

var _ = Describe("Murf", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		status   int
		respBody string
		calls    atomic.Int32
		gotKey   string
		gotReq   map[string]any
		client   *tts.Murf
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		respBody = `{"audioFile":"https://murf.example/a.mp3","audioLengthInSeconds":1.5}`
		calls.Store(0)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			gotKey = r.Header.Get("api-key")
			gotReq = nil
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(respBody))
		}))

		client = tts.NewMurf(tts.Config{APIKey: "murf-key", BaseURL: server.URL}, zap.NewNop())
	})

	AfterEach(func() {
		server.Close()
	})

	It("returns the hosted audio URL", func() {
		url, err := client.Synthesize(ctx, "Hi there friend", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(Equal("https://murf.example/a.mp3"))

		Expect(gotKey).To(Equal("murf-key"))
		Expect(gotReq).To(HaveKeyWithValue("voiceId", tts.DefaultVoice))
		Expect(gotReq).To(HaveKeyWithValue("text", "Hi there friend"))
		Expect(gotReq).To(HaveKeyWithValue("format", tts.DefaultFormat))
		Expect(gotReq).To(HaveKeyWithValue("sampleRate", float64(tts.DefaultSampleRate)))
	})

	It("uses an explicit voice over the configured one", func() {
		_, err := client.Synthesize(ctx, "hi", "en-US-amara")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotReq).To(HaveKeyWithValue("voiceId", "en-US-amara"))
	})

	It("rejects empty text without calling the provider", func() {
		_, err := client.Synthesize(ctx, "  ", "")
		Expect(err).To(BeAssignableToTypeOf(&tts.Error{}))
		Expect(calls.Load()).To(BeZero())
	})

	It("fails when the response has no audioFile", func() {
		respBody = `{"audioLengthInSeconds":0}`

		_, err := client.Synthesize(ctx, "hi", "")
		Expect(err).To(MatchError(ContainSubstring("no audioFile")))
	})

	It("fails on non-success statuses", func() {
		status = http.StatusBadRequest
		respBody = `{"errorMessage":"Invalid voice"}`

		_, err := client.Synthesize(ctx, "hi", "")
		Expect(err).To(HaveOccurred())

		ttsErr, ok := err.(*tts.Error)
		Expect(ok).To(BeTrue())
		Expect(ttsErr.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(ttsErr.Message).To(Equal("Invalid voice"))
	})

	It("fails on malformed JSON", func() {
		respBody = `not json`

		_, err := client.Synthesize(ctx, "hi", "")
		Expect(err).To(BeAssignableToTypeOf(&tts.Error{}))
	})
})
