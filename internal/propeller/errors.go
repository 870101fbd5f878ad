package propeller

import (
	"errors"
	"fmt"

	"github.com/shaiso/propeller/internal/domain"
)

// Ошибки Propeller.
var (
	// ErrRunInProgress — Run вызван, пока идёт сборка или deploy.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrStageFailed — stage вернул ошибку. Сопоставляется с любым *StageError.
	ErrStageFailed = errors.New("stage failed")
)

// StageError — провал stage во время выполнения.
//
// Отличается от *engine.ConfigError: конфигурация была валидна,
// но сам stage (компиляция, передача файлов) завершился ошибкой.
type StageError struct {
	Kind   domain.StageKind // compiler или deployer
	Stage  string           // имя плагина
	Target string           // строка задачи или имя окружения
	Err    error
}

// Error реализует интерфейс error.
func (e *StageError) Error() string {
	if e.Kind == domain.StageKindDeployer {
		return fmt.Sprintf("deployer '%s' failed for environment '%s': %v", e.Stage, e.Target, e.Err)
	}
	return fmt.Sprintf("compiler '%s' failed on '%s': %v", e.Stage, e.Target, e.Err)
}

// Unwrap возвращает исходную ошибку stage.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять errors.Is(err, ErrStageFailed).
func (e *StageError) Is(target error) bool {
	return target == ErrStageFailed
}

// IsStageError проверяет, является ли err провалом stage.
func IsStageError(err error) bool {
	var sErr *StageError
	return errors.As(err, &sErr)
}
