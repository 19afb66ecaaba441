package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/llm"
)

var _ = Describe("Gemini", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		status   int
		respBody string
		delay    time.Duration
		gotPath  string
		gotKey   string
		gotReq   llm.GenerateContentRequest
	)

	newClient := func(cfg llm.Config) *llm.Gemini {
		cfg.APIKey = "gemini-key"
		cfg.BaseURL = server.URL
		return llm.NewGemini(cfg, zap.NewNop())
	}

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		respBody = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Assistant: Hi (waves)"}]}}]}`
		delay = 0
		gotReq = llm.GenerateContentRequest{}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("X-goog-api-key")
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			if delay > 0 {
				time.Sleep(delay)
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(respBody))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the prompt and returns the raw first candidate text", func() {
		text, err := newClient(llm.Config{}).Complete(ctx, "User: hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Assistant: Hi (waves)"))

		Expect(gotPath).To(Equal("/v1beta/models/" + llm.DefaultModel + ":generateContent"))
		Expect(gotKey).To(Equal("gemini-key"))
		Expect(gotReq.Contents).To(HaveLen(1))
		Expect(gotReq.Contents[0].Parts).To(Equal([]llm.Part{{Text: "User: hello"}}))
		Expect(gotReq.GenerationConfig).To(BeNil())
	})

	It("uses the configured model and generation parameters", func() {
		temp := 0.4
		client := newClient(llm.Config{
			Model:      "gemini-2.0-flash",
			Generation: &llm.GenerationConfig{Temperature: &temp},
		})

		_, err := client.Complete(ctx, "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotPath).To(Equal("/v1beta/models/gemini-2.0-flash:generateContent"))
		Expect(gotReq.GenerationConfig).NotTo(BeNil())
		Expect(*gotReq.GenerationConfig.Temperature).To(Equal(0.4))
	})

	DescribeTable("reports malformed payloads",
		func(body string) {
			respBody = body

			_, err := newClient(llm.Config{}).Complete(ctx, "hi")
			Expect(err).To(HaveOccurred())

			var llmErr *llm.Error
			Expect(err).To(BeAssignableToTypeOf(llmErr))
			Expect(err.(*llm.Error).Malformed).To(BeTrue())
		},
		Entry("not JSON", `<html>oops</html>`),
		Entry("no candidates", `{"candidates":[]}`),
		Entry("no content", `{"candidates":[{"finishReason":"SAFETY"}]}`),
		Entry("no parts", `{"candidates":[{"content":{"parts":[]}}]}`),
		Entry("blocked prompt", `{"promptFeedback":{"blockReason":"SAFETY"}}`),
	)

	It("reports non-success statuses with the provider message", func() {
		status = http.StatusTooManyRequests
		respBody = `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`

		_, err := newClient(llm.Config{}).Complete(ctx, "hi")
		Expect(err).To(HaveOccurred())

		llmErr, ok := err.(*llm.Error)
		Expect(ok).To(BeTrue())
		Expect(llmErr.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(llmErr.Message).To(Equal("quota exceeded"))
		Expect(llmErr.Malformed).To(BeFalse())
	})

	It("times out slow providers", func() {
		delay = 200 * time.Millisecond

		_, err := newClient(llm.Config{Timeout: 20 * time.Millisecond}).Complete(ctx, "hi")
		Expect(err).To(HaveOccurred())
		Expect(err).To(BeAssignableToTypeOf(&llm.Error{}))
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})
