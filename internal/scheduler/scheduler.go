package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/propeller/internal/engine"
)

// Trigger — действие на каждом тике (обычно RunAndDeploy).
type Trigger func(ctx context.Context) error

// Scheduler вызывает Trigger по cron-расписанию.
//
// Тики не накапливаются: если Trigger длится дольше интервала,
// следующий запуск вычисляется от момента завершения.
type Scheduler struct {
	schedule cron.Schedule
	trigger  Trigger
	logger   *slog.Logger

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	// Expr — cron-выражение (5 полей или дескриптор).
	Expr string

	// Timezone — IANA имя часового пояса (по умолчанию локальный).
	Timezone string

	Trigger Trigger
	Logger  *slog.Logger
}

// New создаёт Scheduler.
func New(cfg Config) (*Scheduler, error) {
	schedule, err := ParseCron(cfg.Expr, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if cfg.Trigger == nil {
		return nil, errors.New("scheduler: trigger is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Scheduler{
		schedule: schedule,
		trigger:  cfg.Trigger,
		logger:   cfg.Logger.With("component", "scheduler"),
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Run ждёт тиков и вызывает Tick до отмены ctx.
// Возвращает nil при отмене и ошибку конфигурации, если Tick её вернул.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := s.schedule.Next(s.now())
		s.logger.Info("next run scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(s.now())):
		}

		if err := s.Tick(ctx); err != nil {
			return err
		}
	}
}

// Tick выполняет Trigger один раз.
//
// Ошибки stage логируются, и планировщик продолжает работу.
// Ошибки конфигурации возвращаются: без правки конфигурации
// они повторятся на каждом тике.
func (s *Scheduler) Tick(ctx context.Context) error {
	start := s.now()
	err := s.trigger(ctx)
	switch {
	case err == nil:
		s.logger.Info("scheduled run completed", "duration", s.now().Sub(start))
	case ctx.Err() != nil:
		return nil
	case engine.IsConfigError(err):
		s.logger.Error("scheduled run aborted", "error", err)
		return err
	default:
		s.logger.Error("scheduled run failed", "error", err)
	}
	return nil
}
