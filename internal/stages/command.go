package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Runner запускает внешнюю команду и возвращает её объединённый вывод.
type Runner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

// ExecRunner — Runner на os/exec.
type ExecRunner struct{}

// Run запускает команду. Отмена ctx убивает процесс.
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// command — внешняя команда stage.
//
// Line — командная строка в синтаксисе shell ("sass", "npx esbuild").
// Разбирается через go-shellwords, аргументы stage добавляются в конец.
type command struct {
	Line   string
	Runner Runner
}

// run запускает Line с дополнительными аргументами.
func (c command) run(ctx context.Context, log *slog.Logger, args ...string) error {
	words, err := shellwords.Parse(c.Line)
	if err != nil {
		return fmt.Errorf("%w: parse %q: %v", ErrCommandFailed, c.Line, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("%w: empty command", ErrCommandFailed)
	}

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	name := words[0]
	argv := append(words[1:len(words):len(words)], args...)

	log.Debug("exec", "command", name, "args", argv)

	out, err := runner.Run(ctx, name, argv)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%w: %s: %v", ErrCommandFailed, name, err)
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrCommandFailed, name, err, msg)
	}

	if msg := strings.TrimSpace(string(out)); msg != "" {
		log.Info(msg, "command", name)
	}
	return nil
}
