package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd собирает корневую команду propeller со всеми подкомандами.
func NewRootCmd(app *App, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "propeller",
		Short:         "Propeller — pluggable build and deploy pipeline",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup(cmd)
		},
	}

	app.Options.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		NewRunCmd(app),
		NewDeployCmd(app),
		NewCheckCmd(app),
		NewStagesCmd(app),
		NewWatchCmd(app),
		NewScheduleCmd(app),
		NewAgentCmd(app),
		NewHistoryCmd(app),
	)

	return rootCmd
}
