package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harun/agentic/internal/config"
	"github.com/harun/agentic/internal/profile"
)

var (
	flagProfileName    string
	flagProfileTimeout int
	flagShowKeys       bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage named configuration profiles stored under ~/.kore.
Profiles let you switch between accounts and environments without
re-exporting environment variables.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a profile",
	RunE:  runProfileAdd,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Long:  `Set the profile used when --profile is not specified.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileAddCmd, profileListCmd, profileDeleteCmd, profileSetDefaultCmd)

	flags := profileAddCmd.Flags()
	flags.StringVar(&flagProfileName, "name", "", "profile name (required)")
	flags.StringVar(&flagAPIKey, "api-key", "", "API key (required)")
	flags.StringVar(&flagAppID, "app-id", "", "application ID (required)")
	flags.StringVar(&flagEnvName, "env-name", config.DefaultEnvName, "environment name")
	flags.StringVar(&flagBaseURL, "base-url", config.DefaultBaseURL, "base URL for the API")
	flags.IntVar(&flagProfileTimeout, "timeout", 30, "request timeout in seconds")
	cobra.CheckErr(profileAddCmd.MarkFlagRequired("name"))
	cobra.CheckErr(profileAddCmd.MarkFlagRequired("api-key"))
	cobra.CheckErr(profileAddCmd.MarkFlagRequired("app-id"))

	profileListCmd.Flags().BoolVar(&flagShowKeys, "show-keys", false, "show full API keys")
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	p := profile.Profile{
		Name:    flagProfileName,
		APIKey:  flagAPIKey,
		AppID:   flagAppID,
		EnvName: flagEnvName,
		BaseURL: flagBaseURL,
		Timeout: time.Duration(flagProfileTimeout) * time.Second,
	}
	if err := store.Save(p); err != nil {
		return err
	}

	fmt.Printf("Profile %q saved\n", p.Name)
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	profiles, err := store.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles configured. Use 'agentic profile add' to create one.")
		return nil
	}

	defaultName, err := store.DefaultName()
	if err != nil {
		return err
	}

	for _, p := range profiles {
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		key := p.MaskedKey()
		if flagShowKeys {
			key = p.APIKey
		}
		fmt.Printf("%s %-16s api_key=%s app_id=%s env=%s\n", marker, p.Name, key, p.AppID, p.EnvName)
	}
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Profile %q deleted\n", args[0])
	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.SetDefault(args[0]); err != nil {
		return err
	}
	fmt.Printf("Default profile set to %q\n", args[0])
	return nil
}
