package mq

import (
	"errors"

	"github.com/shaiso/propeller/internal/engine"
)

// ErrInvalidPayload — сообщение не разбирается в ожидаемый payload.
var ErrInvalidPayload = errors.New("invalid message payload")

// requeueOnError решает, вернуть ли сообщение в очередь после ошибки.
// Некорректные сообщения и ошибки конфигурации повторять бессмысленно:
// они уходят в DLQ.
func requeueOnError(err error) bool {
	if errors.Is(err, ErrInvalidPayload) || engine.IsConfigError(err) {
		return false
	}
	return true
}
