package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/voiceagent/cmd/voiceagent/chat"
	servecmder "github.com/papercomputeco/voiceagent/cmd/voiceagent/serve"
	sessionscmder "github.com/papercomputeco/voiceagent/cmd/voiceagent/sessions"
)

const rootLongDesc string = `voiceagent is a conversational voice agent.

The server transcribes uploaded speech with AssemblyAI, answers with
Gemini and speaks the answer with Murf, keeping a transcript per
session. The client commands talk to a running server.`

func main() {
	root := &cobra.Command{
		Use:           "voiceagent",
		Short:         "Conversational voice agent server and client",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(servecmder.NewServeCmd())
	root.AddCommand(chatcmder.NewChatCmd())
	root.AddCommand(sessionscmder.NewSessionsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
