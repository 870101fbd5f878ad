package cli

import (
	"github.com/spf13/cobra"
)

// NewStagesCmd создаёт команду списка зарегистрированных stages.
func NewStagesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List registered compilers and deployers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := app.Registry()
			compilers := registry.Compilers()
			deployers := registry.Deployers()

			rows := make([][]string, 0, len(compilers)+len(deployers))
			for _, name := range compilers {
				rows = append(rows, []string{name, "compiler"})
			}
			for _, name := range deployers {
				rows = append(rows, []string{name, "deployer"})
			}

			app.Out.Print([]string{"NAME", "KIND"}, rows, map[string][]string{
				"compilers": compilers,
				"deployers": deployers,
			})
			return nil
		},
	}
}
