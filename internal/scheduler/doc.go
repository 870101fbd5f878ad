// Package scheduler запускает конвейер по cron-расписанию.
//
// Структура:
//   - scheduler.go — цикл Scheduler (Run, Tick)
//   - cron.go      — разбор cron-выражений (robfig/cron)
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Expr:    "*/15 * * * *",
//	    Trigger: func(ctx context.Context) error { return p.RunAndDeploy(ctx, "prod") },
//	    Logger:  logger,
//	})
//	if err != nil {
//	    return err
//	}
//	return sched.Run(ctx)
package scheduler
