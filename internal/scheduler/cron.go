package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — 5 полей плюс дескрипторы (@hourly, @every 5m).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron разбирает cron-выражение в часовом поясе tz.
// Пустой tz означает локальное время.
func ParseCron(expr, tz string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidCron)
	}

	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidCron, tz, err)
		}
		expr = "CRON_TZ=" + tz + " " + expr
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidCron, expr, err)
	}
	return schedule, nil
}

// ValidateCronExpr проверяет cron-выражение.
func ValidateCronExpr(expr string) error {
	_, err := ParseCron(expr, "")
	return err
}

// NextRun возвращает время следующего запуска после from.
func NextRun(expr, tz string, from time.Time) (time.Time, error) {
	schedule, err := ParseCron(expr, tz)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from), nil
}
