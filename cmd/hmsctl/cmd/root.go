package cmd

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-hms-client/internal/app"
	"github.com/jrsteele09/go-hms-client/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbose    = false
	configFile = ""
	envFile    = ""

	hms *app.App
)

var rootCmd = &cobra.Command{
	Use:          "hmsctl",
	Short:        "HMS command line client",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		if verbose {
			overrides["log.level"] = "debug"
		}
		cfg, err := config.New(
			config.WithConfigFile(configFile),
			config.WithEnvFile(envFile),
			config.WithOverrides(overrides),
		)
		if err != nil {
			return err
		}
		app.ConfigureLogging(cfg)

		hms, err = app.New(cmd.Context(), cfg)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		figure.NewFigure(hms.Config.GetAppName(), "cybermedium", true).Print()
		fmt.Println()
		_ = cmd.Help()
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// PersistentPostRun is skipped when a command fails
		_ = closeApp(rootCmd)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// closeApp prints the toasts the command raised and shuts the application down.
func closeApp(cmd *cobra.Command) error {
	if hms == nil {
		return nil
	}
	for _, toast := range hms.Notifier.Toasts() {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s: %s\n", toast.Type, toast.Title, toast.Message)
	}
	err := hms.Close()
	if err != nil {
		log.Err(err).Msg("failed to close application")
	}
	hms = nil
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVarP(&configFile, "config-file", "f", "hms.yaml", "config file")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file")

	rootCmd.AddCommand(loginCmd, registerCmd, whoamiCmd, logoutCmd, patientsCmd, visitsCmd)
}
