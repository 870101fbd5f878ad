package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/domain"
)

// runResult — итог команды run для --json.
type runResult struct {
	Status     string   `json:"status"`
	Tasks      []string `json:"tasks"`
	Deployed   []string `json:"deployed,omitempty"`
	Production bool     `json:"production"`
}

// NewRunCmd создаёт команду сборки.
func NewRunCmd(app *App) *cobra.Command {
	var deploys []string

	cmd := &cobra.Command{
		Use:   "run [TASK...]",
		Short: "Run the task queue, then the requested deployments",
		Long: `Run executes every task from the propeller file in order.

Tasks given as arguments replace the file's task list for this run:

  propeller run 'copy: static/** > public/' 'sass: styles/*.scss > public/css'

With --deploy the environments are deployed after a successful build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) > 0 {
				s.Propeller.Configure(domain.Config{Tasks: args})
			}

			if err := s.Propeller.RunAndDeploy(cmd.Context(), deploys...); err != nil {
				return err
			}

			settings := s.Propeller.Settings()
			if app.Out.JSONMode() {
				app.Out.JSON(runResult{
					Status:     string(domain.RunStatusSucceeded),
					Tasks:      s.Propeller.Pending(),
					Deployed:   deploys,
					Production: settings.IsProduction(),
				})
				return nil
			}

			msg := "Build completed"
			if len(deploys) > 0 {
				msg += ", deployed " + strings.Join(deploys, ", ")
			}
			app.Out.Success(msg)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&deploys, "deploy", "d", nil, "Deploy these environments after the build")
	return cmd
}
