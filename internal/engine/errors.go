package engine

import (
	"errors"

	"github.com/shaiso/propeller/internal/stages"
)

// Ошибки конфигурации.
//
// Все они фатальны и возникают до запуска stage, поэтому
// у упавшей задачи/деплоя нет частичных побочных эффектов.
var (
	// ErrInvalidTask — строка задачи не соответствует формату "stage: src > dest".
	ErrInvalidTask = errors.New("invalid task")

	// ErrCompilerNotFound — compiler не зарегистрирован.
	// Тот же sentinel, что возвращает stages.Registry.
	ErrCompilerNotFound = stages.ErrCompilerNotFound

	// ErrDeployerNotFound — deployer не зарегистрирован.
	ErrDeployerNotFound = stages.ErrDeployerNotFound

	// ErrEnvironmentNotFound — окружение отсутствует в конфигурации.
	ErrEnvironmentNotFound = errors.New("environment not found")

	// ErrNoEnvironment — deploy вызван без имени окружения.
	ErrNoEnvironment = errors.New("no environment given")

	// ErrMissingConnection — deployer требует connection, но он не задан.
	ErrMissingConnection = stages.ErrMissingConnection
)

// ConfigError — ошибка конфигурации с контекстом.
type ConfigError struct {
	Kind    error  // одна из Err* выше
	Subject string // строка задачи, имя compiler'а, deployer'а или окружения
	Message string // описание ошибки
}

// Error реализует интерфейс error.
func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Subject != "" {
		return e.Kind.Error() + ": " + e.Subject
	}
	return e.Kind.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigError) Unwrap() error {
	return e.Kind
}

// NewConfigError создаёт новую ошибку конфигурации.
func NewConfigError(kind error, subject, message string) *ConfigError {
	return &ConfigError{
		Kind:    kind,
		Subject: subject,
		Message: message,
	}
}

// IsConfigError проверяет, является ли err ошибкой конфигурации.
func IsConfigError(err error) bool {
	var cErr *ConfigError
	return errors.As(err, &cErr)
}
