package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/stages"
)

// ErrCheckFailed — конфигурация содержит ошибки.
var ErrCheckFailed = errors.New("configuration check failed")

// checkIssue — одна найденная ошибка.
type checkIssue struct {
	Subject string `json:"subject"`
	Error   string `json:"error"`
}

// NewCheckCmd создаёт команду проверки конфигурации.
func NewCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate tasks and environments without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			issues := Check(cfg, app.Registry())

			if app.Out.JSONMode() {
				app.Out.JSON(map[string]any{
					"tasks":        len(cfg.Tasks),
					"environments": len(cfg.Environments),
					"issues":       issues,
				})
			} else {
				for _, issue := range issues {
					app.Out.Error(issue.Subject + ": " + issue.Error)
				}
			}

			if len(issues) > 0 {
				return fmt.Errorf("%w: %d issue(s)", ErrCheckFailed, len(issues))
			}
			if !app.Out.JSONMode() {
				app.Out.Success(fmt.Sprintf("%d task(s), %d environment(s): ok", len(cfg.Tasks), len(cfg.Environments)))
			}
			return nil
		},
	}
}

// Check проверяет конфигурацию целиком и возвращает все ошибки.
//
// В отличие от engine.Validate, дополнительно проверяются параметры
// подключения окружений, если deployer умеет их проверять.
func Check(cfg domain.Config, registry *stages.Registry) []checkIssue {
	var issues []checkIssue

	for i, line := range cfg.Tasks {
		op, err := engine.ParseTask(line)
		if err != nil {
			issues = append(issues, checkIssue{fmt.Sprintf("task %d", i+1), err.Error()})
			continue
		}
		if !registry.HasCompiler(op.Stage) {
			issues = append(issues, checkIssue{fmt.Sprintf("task %d", i+1), engine.CompilerNotFound(op.Stage).Error()})
		}
	}

	names := make([]string, 0, len(cfg.Environments))
	for name := range cfg.Environments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		env := cfg.Environments[name]
		subject := "environment " + name

		deployer, err := registry.Deployer(env.Type)
		if err != nil {
			issues = append(issues, checkIssue{subject, engine.DeployerNotFound(env.Type).Error()})
			continue
		}

		if r, ok := deployer.(stages.ConnectionRequirer); ok && r.RequiresConnection() && len(env.Connection) == 0 {
			issues = append(issues, checkIssue{subject, engine.MissingConnection(env.Type, name).Error()})
			continue
		}
		if v, ok := deployer.(stages.ConnectionValidator); ok && len(env.Connection) > 0 {
			if err := v.ValidateConnection(env.Connection); err != nil {
				issues = append(issues, checkIssue{subject, err.Error()})
			}
		}
	}

	return issues
}
