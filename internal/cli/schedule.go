package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/scheduler"
)

// NewScheduleCmd создаёт команду запуска по cron.
func NewScheduleCmd(app *App) *cobra.Command {
	var expr string
	var timezone string
	var deploys []string
	var immediately bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule",
		Long: `Schedule runs the task queue (and --deploy environments) at every tick
of a 5-field cron expression or descriptor:

  propeller schedule --cron '*/30 * * * *' --deploy staging
  propeller schedule --cron '@daily' --timezone Europe/Moscow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if expr == "" {
				return errors.New("--cron is required")
			}

			s, err := app.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			sched, err := scheduler.New(scheduler.Config{
				Expr:     expr,
				Timezone: timezone,
				Trigger: func(ctx context.Context) error {
					return s.Propeller.RunAndDeploy(ctx, deploys...)
				},
				Logger: app.Logger,
			})
			if err != nil {
				return err
			}

			return s.Serve(cmd.Context(), func(ctx context.Context) error {
				if immediately {
					if err := sched.Tick(ctx); err != nil {
						return err
					}
				}
				return sched.Run(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&expr, "cron", "", "Cron expression (minute hour dom month dow) or @descriptor")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone of the cron expression (default local)")
	cmd.Flags().StringSliceVarP(&deploys, "deploy", "d", nil, "Deploy these environments after each build")
	cmd.Flags().BoolVar(&immediately, "now", false, "Run once immediately before waiting for the first tick")
	return cmd
}
