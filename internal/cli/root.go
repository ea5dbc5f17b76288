package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/agentic/internal/config"
	"github.com/harun/agentic/internal/logger"
	"github.com/harun/agentic/internal/profile"
)

const version = "0.1.0"

var (
	flagAPIKey   string
	flagAppID    string
	flagEnvName  string
	flagBaseURL  string
	flagTimeout  int
	flagEnvFile  string
	flagProfile  string
	flagJSON     bool
	flagVerbose  bool
	flagLogLevel string
	flagLogFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentic",
	Short: "Agentic - CLI for the agentic app platform",
	Long: `Agentic is a command-line client for the agentic app platform.
It executes agent runs synchronously or asynchronously, polls run status,
and provides an interactive chat session with streaming support.

Configuration precedence (highest to lowest): command-line flags,
KOREAI_* environment variables, profile values, built-in defaults.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAPIKey, "api-key", "", "API key (overrides KOREAI_API_KEY)")
	flags.StringVar(&flagAppID, "app-id", "", "application ID (overrides KOREAI_APP_ID)")
	flags.StringVar(&flagEnvName, "env-name", "", "environment name (overrides KOREAI_ENV_NAME)")
	flags.StringVar(&flagBaseURL, "base-url", "", "base URL for the API (overrides KOREAI_BASE_URL)")
	flags.IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds (overrides KOREAI_TIMEOUT)")
	flags.StringVar(&flagEnvFile, "env-file", "", "path to .env file for configuration")
	flags.StringVar(&flagProfile, "profile", "", "profile name to use for configuration")
	flags.BoolVar(&flagJSON, "json", false, "output in JSON format")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output (enables debug logging)")
	flags.StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&flagLogFile, "log-file", "", "write logs to file (rotated at 10MB)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := logger.DefaultConfig()
	cfg.Level = flagLogLevel
	cfg.File = flagLogFile
	if flagVerbose {
		cfg.Level = "debug"
	}

	l, err := logger.New(cfg)
	if err != nil {
		return err
	}
	log.Logger = l.Zerolog()
	return nil
}

// openStore opens the profile store at its default location.
func openStore() (*profile.Store, error) {
	return profile.NewStore("", log.Logger)
}

// loadConfig resolves the effective configuration from the four sources:
// flags, environment, selected or default profile, and built-in defaults.
func loadConfig() (*config.Config, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	var prof *profile.Profile
	if flagProfile != "" {
		prof, err = store.Lookup(flagProfile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
	} else {
		prof, err = store.DefaultProfile()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
	}

	env, err := config.FromEnv(flagEnvFile)
	if err != nil {
		return nil, err
	}

	overrides := config.Values{
		APIKey:  flagAPIKey,
		AppID:   flagAppID,
		EnvName: flagEnvName,
		BaseURL: flagBaseURL,
		Timeout: time.Duration(flagTimeout) * time.Second,
	}

	return config.Resolve(overrides, env, config.FromProfile(prof), config.Defaults())
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
