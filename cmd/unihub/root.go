package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	logLevel   string
	baseURL    string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "UniHub community client",
		Long: `unihub talks to a UniHub backend: browse and create communities,
join or leave them, follow posts and comments, and search for users.

Configuration is read from ~/.config/unihub/config.yaml, then unihub.yaml
in the working directory or a parent, then UNIHUB_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML); replaces the user and project files")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "Backend base URL")

	cmd.AddCommand(
		signupCmd(&g),
		verifyOTPCmd(&g),
		loginCmd(&g),
		logoutCmd(&g),
		profileCmd(&g),
		communitiesCmd(&g),
		joinCmd(&g),
		leaveCmd(&g),
		membershipCmd(&g),
		postsCmd(&g),
		commentsCmd(&g),
		usersCmd(&g),
		testimonialsCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}
