package cli

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/agentic/pkg/chat"
	"github.com/harun/agentic/pkg/client"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive REPL-style chat session with the agent.
Messages share a session identity so the remote service keeps conversational
context. Control commands start with '#'; type '#help' inside the session.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	flags := chatCmd.Flags()
	flags.StringVar(&flagSessionID, "session-id", "", "session identifier (generated if omitted)")
	flags.StringVar(&flagUserID, "user-id", "", "user identifier (generated if omitted)")
	flags.StringVar(&flagStream, "stream", "", "streaming mode (tokens, messages, or custom)")
	flags.BoolVar(&flagDebug, "debug", false, "enable debug mode")
	flags.StringVar(&flagDebugMode, "debug-mode", "", "debug mode level (all, function-call, or thoughts)")
	flags.StringVar(&flagMetadata, "metadata", "", "custom metadata as a JSON string map")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var metadata map[string]string
	if flagMetadata != "" {
		metadata, err = client.ParseMetadata(flagMetadata)
		if err != nil {
			return err
		}
	}

	state := chat.State{
		UserRef:    flagUserID,
		SessionRef: flagSessionID,
		Debug:      flagDebug,
		DebugMode:  flagDebugMode,
		EnvName:    cfg.EnvName,
	}
	if flagStream != "" {
		state.Stream = true
		state.StreamMode = flagStream
	}

	ctx, stop := interruptible()
	defer stop()

	c := client.New(cfg, client.WithLogger(log.Logger))

	opts := []chat.Option{
		chat.WithState(state),
		chat.WithLogger(log.Logger),
		chat.WithMetadata(metadata),
	}
	if flagVerbose {
		opts = append(opts, chat.WithVerbose(true))
	}

	session := chat.New(c, os.Stdin, os.Stdout, opts...)

	if err := session.Run(ctx); err != nil {
		// Interrupt is a clean shutdown, not a failure.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}
