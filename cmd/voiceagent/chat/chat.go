package chatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/voiceagent/api"
	"github.com/papercomputeco/voiceagent/cmd/voiceagent/clistyle"
)

const chatLongDesc string = `Send a recorded utterance to a running voice agent.

Uploads the audio file to the server's /agent/chat/<session> endpoint
and prints what was heard, the agent's reply and the reply audio URL.
Reuse --session to continue a conversation; without it a new session
id is generated and printed.

Examples:
  voiceagent chat http://localhost:8000 hello.webm
  voiceagent chat --session demo http://localhost:8000 followup.webm`

const chatShortDesc string = "Talk to a running voice agent"

type chatCommander struct {
	sessionID   string
	timeout     time.Duration
	showHistory bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat <server-url> <audio-file>",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Session id (default: a new random id)")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 2*time.Minute, "Request timeout")
	cmd.Flags().BoolVar(&cmder.showHistory, "history", false, "Print the full session history after the reply")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, serverURL, audioPath string) error {
	serverURL = strings.TrimRight(serverURL, "/")

	sessionID := c.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("could not read audio file: %w", err)
	}

	resp, err := c.postAudio(ctx, serverURL, sessionID, filepath.Base(audioPath), audio)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, clistyle.Field("Session", clistyle.Muted.Render(sessionID)))
	fmt.Fprintln(out, clistyle.Field("You", clistyle.User.Render(resp.Transcript)))
	fmt.Fprintln(out, clistyle.Field("Agent", clistyle.Assistant.Render(resp.LLMText)))

	urls := resp.AudioURLs
	if resp.AudioURL != "" {
		urls = []string{resp.AudioURL}
	}
	for _, u := range urls {
		fmt.Fprintln(out, clistyle.Field("Audio", u))
	}

	if c.showHistory {
		fmt.Fprintln(out)
		for _, turn := range resp.ChatHistory {
			fmt.Fprintf(out, "%s: %s\n", clistyle.Role(string(turn.Role)), turn.Text)
		}
	}

	return nil
}

func (c *chatCommander) postAudio(ctx context.Context, serverURL, sessionID, filename string, audio []byte) (*api.ChatResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("could not build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("could not build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("could not build upload: %w", err)
	}

	endpoint := serverURL + "/agent/chat/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}

	var result api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return &result, nil
}

// serverError reports the detail of an error response, falling back to the
// raw body.
func serverError(resp *http.Response) error {
	respBody, _ := io.ReadAll(resp.Body)

	var errResp api.ErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Detail != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Detail)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
}
