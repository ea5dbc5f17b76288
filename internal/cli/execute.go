package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/agentic/pkg/chat"
	"github.com/harun/agentic/pkg/client"
)

var (
	flagQuery        string
	flagSessionID    string
	flagUserID       string
	flagStream       string
	flagDebug        bool
	flagDebugMode    string
	flagMetadata     string
	flagAsync        bool
	flagWait         bool
	flagPollInterval int
	flagMaxAttempts  int
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute an agent run",
	Long: `Execute an agent run with the given query. By default the run is
synchronous and the response is printed when it completes. With --async the
run identifier is printed instead; add --wait to poll it to completion.
With --stream the response is consumed as a live event stream.`,
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)

	flags := executeCmd.Flags()
	flags.StringVarP(&flagQuery, "query", "q", "", "query text to send (required)")
	flags.StringVar(&flagSessionID, "session-id", "", "session identifier (generated if omitted)")
	flags.StringVar(&flagUserID, "user-id", "", "user identifier (generated if omitted)")
	flags.StringVar(&flagStream, "stream", "", "streaming mode (tokens, messages, or custom)")
	flags.BoolVar(&flagDebug, "debug", false, "enable debug mode")
	flags.StringVar(&flagDebugMode, "debug-mode", "", "debug mode level (all, function-call, or thoughts)")
	flags.StringVar(&flagMetadata, "metadata", "", "custom metadata as a JSON string map")
	flags.BoolVar(&flagAsync, "async", false, "start the run asynchronously and print the run ID")
	flags.BoolVar(&flagWait, "wait", false, "poll the run until it completes (implies --async)")
	flags.IntVar(&flagPollInterval, "poll-interval", 2, "seconds between polling attempts")
	flags.IntVar(&flagMaxAttempts, "max-attempts", 30, "maximum number of polling attempts")

	cobra.CheckErr(executeCmd.MarkFlagRequired("query"))
}

// buildExecuteRequest assembles the request from the command flags, shared
// by execute and chat.
func buildExecuteRequest(query string) (client.ExecuteRequest, error) {
	req := client.ExecuteRequest{
		Query:      query,
		UserRef:    flagUserID,
		SessionRef: flagSessionID,
		// --wait only makes sense for a run started asynchronously.
		Async: flagAsync || flagWait,
		Debug: client.DebugConfig{
			Enable:    flagDebug,
			DebugMode: flagDebugMode,
		},
	}

	if req.UserRef == "" {
		req.UserRef = chat.NewUserRef()
	}
	if req.SessionRef == "" {
		req.SessionRef = chat.NewSessionID()
	}
	if flagStream != "" {
		req.Stream = client.StreamConfig{Enable: true, Mode: flagStream}
	}
	if flagMetadata != "" {
		meta, err := client.ParseMetadata(flagMetadata)
		if err != nil {
			return client.ExecuteRequest{}, err
		}
		req.Metadata = meta
	}

	return req, nil
}

// interruptible returns a context cancelled by SIGINT or SIGTERM.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := buildExecuteRequest(flagQuery)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	c := client.New(cfg, client.WithLogger(log.Logger))
	log.Info().Str("session", req.SessionRef).Msg("Executing run")

	if req.Stream.Enable {
		return streamExecute(ctx, c, req)
	}

	if req.Async && flagWait {
		status, err := c.ExecuteAndWait(ctx, req,
			time.Duration(flagPollInterval)*time.Second, flagMaxAttempts)
		if err != nil {
			return err
		}
		return printRunStatus(status)
	}

	resp, err := c.Execute(ctx, req)
	if err != nil {
		return err
	}
	return printExecuteResponse(resp)
}

// streamExecute consumes a live stream, printing content as it arrives. With
// --json the stream is drained into a materialized response instead.
func streamExecute(ctx context.Context, c *client.Client, req client.ExecuteRequest) error {
	stream, err := c.ExecuteStream(ctx, req)
	if err != nil {
		return err
	}

	if flagJSON {
		resp, err := stream.Collect(ctx)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}

	defer stream.Close()
	for {
		event, err := stream.Next(ctx)
		if err != nil {
			fmt.Println()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		fmt.Print(event.Content)
	}
}
