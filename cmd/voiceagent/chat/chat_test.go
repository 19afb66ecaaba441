package chatcmder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/api"
	"github.com/papercomputeco/voiceagent/pkg/agent"
	"github.com/papercomputeco/voiceagent/pkg/session"
	"github.com/papercomputeco/voiceagent/pkg/tts"
	"github.com/papercomputeco/voiceagent/pkg/uploads"
)

type echoTranscriber struct{}

func (echoTranscriber) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	return string(data), err
}

type cannedCompleter struct{}

func (cannedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	return "Assistant: Nice to hear from you (smiles)", nil
}

type urlSynth struct{}

func (urlSynth) Synthesize(_ context.Context, text, voiceID string) (string, error) {
	return "https://audio.example/reply.mp3", nil
}

var _ = Describe("Chat Command", func() {
	var (
		ctx    context.Context
		tmpDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "voiceagent-chat-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeAudio := func(name, content string) string {
		path := filepath.Join(tmpDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	startServer := func() (string, *session.MemoryStore, func()) {
		logger := zap.NewNop()
		store := session.NewMemoryStore()

		a := agent.New(store, agent.Providers{
			Transcriber: echoTranscriber{},
			Completer:   cannedCompleter{},
			Speaker:     tts.NewChunker(urlSynth{}, tts.DefaultChunkSize, logger),
		}, logger)

		stager, err := uploads.NewStager(filepath.Join(tmpDir, "uploads"), logger)
		Expect(err).NotTo(HaveOccurred())

		srv, err := api.NewServer(api.Config{ListenAddr: ":0"}, a, stager, logger)
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			srv.Shutdown()
		}
		return addr, store, cleanup
	}

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewChatCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("uploads audio and prints the exchange", func() {
		addr, _, cleanup := startServer()
		defer cleanup()

		out, err := execute("--session", "demo", addr, writeAudio("hello.webm", "Hello there"))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("demo"))
		Expect(out).To(ContainSubstring("Hello there"))
		Expect(out).To(ContainSubstring("Nice to hear from you"))
		Expect(out).NotTo(ContainSubstring("(smiles)"))
		Expect(out).To(ContainSubstring("https://audio.example/reply.mp3"))
	})

	It("continues a conversation with the same session", func() {
		addr, store, cleanup := startServer()
		defer cleanup()

		_, err := execute("--session", "demo", addr, writeAudio("one.webm", "First"))
		Expect(err).NotTo(HaveOccurred())

		out, err := execute("--session", "demo", "--history", addr, writeAudio("two.webm", "Second"))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("User: First"))
		Expect(out).To(ContainSubstring("User: Second"))

		history, err := store.Get(ctx, "demo")
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(4))
	})

	It("generates a session id when none is given", func() {
		addr, store, cleanup := startServer()
		defer cleanup()

		_, err := execute(addr, writeAudio("hello.webm", "Hi"))
		Expect(err).NotTo(HaveOccurred())

		sessions, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions).To(HaveLen(1))
		Expect(sessions[0].SessionID).NotTo(BeEmpty())
		Expect(sessions[0].Depth).To(Equal(2))
	})

	It("reports the server's error detail", func() {
		addr, _, cleanup := startServer()
		defer cleanup()

		_, err := execute("--session", "demo", addr, writeAudio("empty.webm", ""))
		Expect(err).To(MatchError(ContainSubstring("server returned 400: Empty audio file.")))
	})

	It("fails when the audio file does not exist", func() {
		_, err := execute("http://127.0.0.1:1", filepath.Join(tmpDir, "nope.webm"))
		Expect(err).To(MatchError(ContainSubstring("could not read audio file")))
	})

	It("fails when the server is unreachable", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr := fmt.Sprintf("http://%s", listener.Addr().String())
		listener.Close()

		_, err = execute("--timeout", "2s", addr, writeAudio("hello.webm", "Hi"))
		Expect(err).To(MatchError(ContainSubstring("HTTP request failed")))
	})
})
