package cli

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand represents the base command when called without any subcommands
func NewRootCommand(container *di.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mokomoko",
		Short: "MokoMoko CLI - blanket marketplace client",
		Long: `MokoMoko CLI is the terminal client for the MokoMoko blanket marketplace.

It signs in against the identity provider, keeps the session token fresh,
and reads listings, favorites and seasonal campaigns through a shared
response cache so repeated reads never hit the API twice.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Replay a persisted session before any command runs, so a
			// previously signed-in user is authenticated from the start.
			container.Restore(cmd.Context())
			return applyAPIOverride(cmd, container)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("api-url", "", "API endpoint URL (overrides MOKOMOKO_API_URL)")

	rootCmd.AddCommand(NewAuthCommand(container))
	rootCmd.AddCommand(NewPostsCommand(container))
	rootCmd.AddCommand(NewFavoritesCommand(container))
	rootCmd.AddCommand(NewCampaignsCommand(container))
	rootCmd.AddCommand(NewProfileCommand(container))
	rootCmd.AddCommand(NewBrowseCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applyAPIOverride rebuilds the HTTP layer when --api-url is set explicitly.
func applyAPIOverride(cmd *cobra.Command, container *di.Container) error {
	if !cmd.Flags().Changed("api-url") {
		return nil
	}
	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return err
	}
	if err := container.OverrideAPIURL(apiURL); err != nil {
		return fmt.Errorf("failed to override API URL: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(container *di.Container) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
