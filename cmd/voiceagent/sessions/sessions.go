package sessionscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/voiceagent/api"
	"github.com/papercomputeco/voiceagent/cmd/voiceagent/clistyle"
)

const sessionsLongDesc string = `List the sessions held by a running voice agent.

Sessions live in the server's memory and are lost when it restarts.
With --session, prints that session's transcript instead.

Examples:
  voiceagent sessions http://localhost:8000
  voiceagent sessions --session demo http://localhost:8000`

const sessionsShortDesc string = "List sessions on a running voice agent"

type sessionsCommander struct {
	sessionID string
	timeout   time.Duration
}

func NewSessionsCmd() *cobra.Command {
	cmder := &sessionsCommander{}

	cmd := &cobra.Command{
		Use:   "sessions <server-url>",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Show the transcript of this session")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}

func (c *sessionsCommander) run(ctx context.Context, cmd *cobra.Command, serverURL string) error {
	serverURL = strings.TrimRight(serverURL, "/")
	out := cmd.OutOrStdout()

	if c.sessionID != "" {
		var history api.HistoryResponse
		if err := c.get(ctx, serverURL+"/agent/history/"+url.PathEscape(c.sessionID), &history); err != nil {
			return err
		}

		fmt.Fprintln(out, clistyle.Field("Session", history.SessionID))
		fmt.Fprintln(out, clistyle.Field("Turns", fmt.Sprintf("%d", history.Depth)))
		for _, turn := range history.ChatHistory {
			fmt.Fprintf(out, "%s: %s\n", clistyle.Role(string(turn.Role)), turn.Text)
		}
		return nil
	}

	var list api.SessionsResponse
	if err := c.get(ctx, serverURL+"/agent/sessions", &list); err != nil {
		return err
	}

	if list.Count == 0 {
		fmt.Fprintln(out, "No sessions.")
		return nil
	}

	for _, s := range list.Sessions {
		fmt.Fprintf(out, "%s %s\n", s.SessionID, clistyle.Muted.Render(fmt.Sprintf("(%d turns)", s.Depth)))
	}

	return nil
}

func (c *sessionsCommander) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Detail != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}
