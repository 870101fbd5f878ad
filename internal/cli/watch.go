package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/stages"
	"github.com/shaiso/propeller/internal/watch"
)

// NewWatchCmd создаёт команду пересборки при изменениях.
func NewWatchCmd(app *App) *cobra.Command {
	var deploys []string
	var debounce time.Duration
	var gitignore bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild when task sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			patterns, excludes := watchTargets(s.Config)

			var ignorer *stages.Ignorer
			if gitignore {
				if ignorer, err = stages.LoadGitignore("."); err != nil {
					return err
				}
			}

			w, err := watch.New(watch.Config{
				Patterns: patterns,
				Excludes: excludes,
				Ignorer:  ignorer,
				Debounce: debounce,
				Trigger: func(ctx context.Context) error {
					return s.Propeller.RunAndDeploy(ctx, deploys...)
				},
				Logger: app.Logger,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			app.Logger.Info("watching", "dirs", w.Dirs())
			return s.Serve(cmd.Context(), w.Run)
		},
	}

	cmd.Flags().StringSliceVarP(&deploys, "deploy", "d", nil, "Deploy these environments after each build")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before rebuilding")
	cmd.Flags().BoolVar(&gitignore, "gitignore", true, "Ignore changes to files listed in .gitignore")
	return cmd
}

// watchTargets возвращает шаблоны исходников задач и пути назначения,
// изменения в которых не должны запускать сборку.
func watchTargets(cfg domain.Config) (patterns, excludes []string) {
	for _, line := range cfg.Tasks {
		op, err := engine.ParseTask(line)
		if err != nil {
			continue
		}
		patterns = append(patterns, op.Sources...)
		excludes = append(excludes, op.Dest)
	}
	for _, env := range cfg.Environments {
		if env.Type == stages.StageTypeFile && env.Dest != "" {
			excludes = append(excludes, env.Dest)
		}
	}
	return patterns, excludes
}
