package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/repo"
)

// NewHistoryCmd создаёт команду просмотра журнала runs.
func NewHistoryCmd(app *App) *cobra.Command {
	var limit int
	var phase string
	var status string

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List journaled runs, or show the stages of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Options.DatabaseURL == "" {
				return errors.New("history requires --db-url")
			}

			pool, err := repo.NewPool(cmd.Context(), app.Options.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			runs := repo.NewRunRepo(pool)

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return err
				}
				run, err := runs.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				printStages(app.Out, run)
				return nil
			}

			list, err := runs.List(cmd.Context(), repo.RunFilter{
				Phase:  domain.Phase(phase),
				Status: domain.RunStatus(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			printRuns(app.Out, list)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", repo.DefaultListLimit, "Maximum number of runs")
	cmd.Flags().StringVar(&phase, "phase", "", "Filter by phase (build, deploy)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, SUCCEEDED, FAILED)")
	return cmd
}

func printRuns(out *Output, runs []domain.Run) {
	headers := []string{"ID", "PHASE", "STATUS", "PRODUCTION", "DURATION", "CREATED"}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID.String(),
			string(r.Phase),
			string(r.Status),
			strconv.FormatBool(r.Production),
			formatDuration(r.Duration()),
			r.CreatedAt.Format(time.DateTime),
		}
	}
	out.Print(headers, rows, runs)
}

func printStages(out *Output, run *domain.Run) {
	headers := []string{"#", "KIND", "STAGE", "TARGET", "STATUS", "DURATION", "ERROR"}
	rows := make([][]string, len(run.Stages))
	for i, s := range run.Stages {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.Kind.String(),
			s.Name,
			s.Target,
			string(s.Status),
			formatDuration(s.Duration()),
			s.Error,
		}
	}
	out.Print(headers, rows, run)
}
