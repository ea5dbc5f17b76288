package cli

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/agentic/pkg/client"
)

var flagRunID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of a run",
	Long: `Check the status of an asynchronous run. With --wait the status is
polled at a fixed interval until the run completes or the attempt budget is
exhausted.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	flags := statusCmd.Flags()
	flags.StringVar(&flagRunID, "run-id", "", "run identifier to check (required)")
	flags.BoolVar(&flagWait, "wait", false, "poll until the run completes")
	flags.IntVar(&flagPollInterval, "poll-interval", 2, "seconds between polling attempts")
	flags.IntVar(&flagMaxAttempts, "max-attempts", 30, "maximum number of polling attempts")

	cobra.CheckErr(statusCmd.MarkFlagRequired("run-id"))
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	c := client.New(cfg, client.WithLogger(log.Logger))
	log.Info().Str("run_id", flagRunID).Msg("Checking run status")

	var status *client.RunStatus
	if flagWait {
		status, err = c.PollRunStatus(ctx, flagRunID,
			time.Duration(flagPollInterval)*time.Second, flagMaxAttempts)
	} else {
		status, err = c.RunStatus(ctx, flagRunID)
	}
	if err != nil {
		return err
	}

	return printRunStatus(status)
}
