// Package agent runs the voice conversation pipeline: transcribe the user's
// audio, ask the model for a reply, clean the reply for speech and
// synthesize it, keeping a transcript per session.
package agent

import (
	"bytes"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/conversation"
	"github.com/papercomputeco/voiceagent/pkg/llm"
	"github.com/papercomputeco/voiceagent/pkg/sanitize"
	"github.com/papercomputeco/voiceagent/pkg/session"
	"github.com/papercomputeco/voiceagent/pkg/stt"
)

// Speaker synthesizes text into one or more audio URLs, applying the
// chunking policy for long text.
type Speaker interface {
	SynthesizeAll(ctx context.Context, text, voiceID string) ([]string, error)
}

// Providers are the external services the agent calls.
type Providers struct {
	Transcriber stt.Transcriber
	Completer   llm.Completer
	Speaker     Speaker

	// Voice is the voice used for replies. Empty means the speaker's default.
	Voice string
}

// Agent composes the providers into the conversation pipeline. It is the
// only writer of the session store.
type Agent struct {
	store     session.Store
	providers Providers
	logger    *zap.Logger
}

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	// Transcript is what the user said.
	Transcript string

	// Reply is the sanitized model reply.
	Reply string

	// AudioURLs holds one URL per synthesized chunk of Reply, in order.
	AudioURLs []string

	// History is the full session transcript after this turn.
	History conversation.Transcript
}

// EchoResult is the outcome of Echo.
type EchoResult struct {
	Transcript string
	AudioURLs  []string
}

// QueryResult is the outcome of Query.
type QueryResult struct {
	Transcript string
	Reply      string
	AudioURLs  []string
}

// New creates a new Agent.
func New(store session.Store, providers Providers, logger *zap.Logger) *Agent {
	return &Agent{
		store:     store,
		providers: providers,
		logger:    logger,
	}
}

// HandleTurn runs one conversational turn for sessionID.
//
// The user turn is recorded as soon as the transcription is accepted and is
// kept even if the completion or synthesis fails afterwards, so a session can
// hold a user turn with no matching assistant turn. Turns for the same
// session are serialized; turns for different sessions run concurrently.
//
// Every call is a new turn: replaying the same audio grows the history again.
func (a *Agent) HandleTurn(ctx context.Context, sessionID string, audio []byte) (*TurnResult, error) {
	startTime := time.Now()

	unlock := a.store.Lock(sessionID)
	defer unlock()

	if _, err := a.store.GetOrCreate(ctx, sessionID); err != nil {
		return nil, internal(err)
	}

	if len(audio) == 0 {
		return nil, invalidInput("Empty audio file.")
	}

	userText, err := a.transcribe(ctx, audio)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(userText) == "" {
		return nil, invalidInput("Empty transcription.")
	}

	if err := a.store.AppendTurn(ctx, sessionID, conversation.Turn{Role: conversation.RoleUser, Text: userText}); err != nil {
		return nil, internal(err)
	}

	history, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, internal(err)
	}
	prompt := conversation.RenderPrompt(history)

	a.logger.Debug("prompt rendered",
		zap.String("session_id", sessionID),
		zap.Int("turns", len(history)),
		zap.Int("prompt_chars", len(prompt)),
	)

	reply, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if err := a.store.AppendTurn(ctx, sessionID, conversation.Turn{Role: conversation.RoleAssistant, Text: reply}); err != nil {
		return nil, internal(err)
	}

	urls, err := a.speak(ctx, reply, a.providers.Voice)
	if err != nil {
		return nil, err
	}

	history, err = a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, internal(err)
	}

	a.logger.Info("turn completed",
		zap.String("session_id", sessionID),
		zap.Int("history_len", len(history)),
		zap.Int("audio_chunks", len(urls)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &TurnResult{
		Transcript: userText,
		Reply:      reply,
		AudioURLs:  urls,
		History:    history,
	}, nil
}

// Transcribe returns the text of audio without touching any session.
func (a *Agent) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return a.transcribe(ctx, audio)
}

// Speak synthesizes text with the reply voice.
func (a *Agent) Speak(ctx context.Context, text string) ([]string, error) {
	return a.speak(ctx, text, a.providers.Voice)
}

// SpeakWithVoice synthesizes text with voiceID.
func (a *Agent) SpeakWithVoice(ctx context.Context, text, voiceID string) ([]string, error) {
	return a.speak(ctx, text, voiceID)
}

// Echo transcribes audio and reads the transcript back.
func (a *Agent) Echo(ctx context.Context, audio []byte) (*EchoResult, error) {
	text, err := a.transcribe(ctx, audio)
	if err != nil {
		return nil, err
	}

	urls, err := a.speak(ctx, text, a.providers.Voice)
	if err != nil {
		return nil, err
	}

	return &EchoResult{Transcript: text, AudioURLs: urls}, nil
}

// Query answers a single utterance with no session history.
func (a *Agent) Query(ctx context.Context, audio []byte) (*QueryResult, error) {
	text, err := a.transcribe(ctx, audio)
	if err != nil {
		return nil, err
	}

	reply, err := a.complete(ctx, text)
	if err != nil {
		return nil, err
	}

	urls, err := a.speak(ctx, reply, a.providers.Voice)
	if err != nil {
		return nil, err
	}

	return &QueryResult{Transcript: text, Reply: reply, AudioURLs: urls}, nil
}

// History returns a copy of the transcript for sessionID. ok is false if
// the session has never been used.
func (a *Agent) History(ctx context.Context, sessionID string) (conversation.Transcript, bool) {
	turns, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	return turns, true
}

// Sessions lists every known session.
func (a *Agent) Sessions(ctx context.Context) ([]session.Summary, error) {
	summaries, err := a.store.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return summaries, nil
}

func (a *Agent) transcribe(ctx context.Context, audio []byte) (string, error) {
	text, err := a.providers.Transcriber.Transcribe(ctx, bytes.NewReader(audio))
	if err != nil {
		a.logger.Error("transcription failed", zap.Error(err))
		return "", &Error{Kind: UpstreamTranscription, Detail: "Transcription failed: " + err.Error(), Err: err}
	}
	return text, nil
}

// complete asks the model and returns the sanitized reply.
func (a *Agent) complete(ctx context.Context, prompt string) (string, error) {
	raw, err := a.providers.Completer.Complete(ctx, prompt)
	if err != nil {
		a.logger.Error("completion failed", zap.Error(err))
		return "", &Error{Kind: UpstreamCompletion, Detail: "LLM query failed: " + err.Error(), Err: err}
	}
	return sanitize.Response(raw), nil
}

func (a *Agent) speak(ctx context.Context, text, voiceID string) ([]string, error) {
	urls, err := a.providers.Speaker.SynthesizeAll(ctx, text, voiceID)
	if err != nil {
		a.logger.Error("speech synthesis failed", zap.Error(err))
		return nil, &Error{Kind: UpstreamSynthesis, Detail: "Audio generation failed: " + err.Error(), Err: err}
	}
	return urls, nil
}
