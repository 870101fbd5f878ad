package scheduler

import "errors"

// ErrInvalidCron — некорректное cron-выражение или часовой пояс.
var ErrInvalidCron = errors.New("invalid cron expression")
