package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/propeller/internal/domain"
)

// Console печатает ход run'а для человека.
//
// Реализует propeller.Observer. В JSON-режиме молчит: stdout
// отдан под машинный вывод, а события есть в логах.
type Console struct {
	out *Output
}

// NewConsole создаёт Console поверх out.
func NewConsole(out *Output) *Console {
	return &Console{out: out}
}

func (c *Console) RunStarted(_ context.Context, run *domain.Run) {
	if c.out.jsonMode {
		return
	}
	mode := "development"
	if run.Production {
		mode = "production"
	}
	c.out.dim.Fprintf(c.out.errW, "%s started (%s)\n", run.Phase, mode)
}

func (c *Console) StageStarted(_ context.Context, _ *domain.Run, stage *domain.StageResult) {
	if c.out.jsonMode {
		return
	}
	fmt.Fprintf(c.out.errW, "  %s %s\n", c.out.name.Sprint(stage.Name), stage.Target)
}

func (c *Console) StageFinished(_ context.Context, _ *domain.Run, stage *domain.StageResult) {
	if c.out.jsonMode {
		return
	}
	if stage.Status == domain.StageStatusFailed {
		c.out.fail.Fprintf(c.out.errW, "  ✗ %s: %s\n", stage.Name, stage.Error)
		return
	}
	c.out.ok.Fprintf(c.out.errW, "  ✓ %s (%s)\n", stage.Name, formatDuration(stage.Duration()))
}

func (c *Console) RunFinished(_ context.Context, run *domain.Run) {
	if c.out.jsonMode {
		return
	}
	if run.Status == domain.RunStatusFailed {
		c.out.fail.Fprintf(c.out.errW, "%s failed after %s\n", run.Phase, formatDuration(run.Duration()))
		return
	}
	c.out.ok.Fprintf(c.out.errW, "%s finished in %s\n", run.Phase, formatDuration(run.Duration()))
}

// formatDuration округляет до миллисекунд.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
