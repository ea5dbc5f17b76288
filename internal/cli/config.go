package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the effective configuration after merging command-line flags,
environment variables, profile values, and built-in defaults. The API key is
masked in the output.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]any{
			"api_key":  maskedField(cfg.APIKey),
			"app_id":   cfg.AppID,
			"env_name": cfg.EnvName,
			"base_url": cfg.BaseURL,
			"timeout":  cfg.Timeout.String(),
		})
	}

	fmt.Println(cfg.Masked())
	return nil
}

func maskedField(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:8] + "..."
}
