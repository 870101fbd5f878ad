package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shaiso/propeller/internal/domain"
)

// Resolver — минимальный интерфейс реестра stages, нужный для валидации.
type Resolver interface {
	HasCompiler(name string) bool
	HasDeployer(name string) bool
}

// Validate выполняет полную предварительную проверку конфигурации.
//
// Проверяет:
//   - Формат каждой строки задачи
//   - Наличие compiler'а для каждой задачи
//   - Наличие deployer'а для каждого окружения
//
// В отличие от Propeller.Run, который останавливается на первой ошибке,
// Validate собирает все ошибки через errors.Join.
func Validate(cfg domain.Config, r Resolver) error {
	var errs []error

	for _, line := range cfg.Tasks {
		op, err := ParseTask(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !r.HasCompiler(op.Stage) {
			errs = append(errs, CompilerNotFound(op.Stage))
		}
	}

	// Окружения проверяем в детерминированном порядке
	names := make([]string, 0, len(cfg.Environments))
	for name := range cfg.Environments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		env := cfg.Environments[name]
		if !r.HasDeployer(env.Type) {
			errs = append(errs, DeployerNotFound(env.Type))
		}
	}

	return errors.Join(errs...)
}

// CompilerNotFound создаёт ConfigError для незарегистрированного compiler'а.
func CompilerNotFound(name string) *ConfigError {
	return NewConfigError(ErrCompilerNotFound, name, fmt.Sprintf("compiler '%s' not found", name))
}

// DeployerNotFound создаёт ConfigError для незарегистрированного deployer'а.
func DeployerNotFound(name string) *ConfigError {
	return NewConfigError(ErrDeployerNotFound, name, fmt.Sprintf("deployer '%s' not found", name))
}

// EnvironmentNotFound создаёт ConfigError для неизвестного окружения.
func EnvironmentNotFound(name string) *ConfigError {
	return NewConfigError(ErrEnvironmentNotFound, name,
		fmt.Sprintf("environment '%s' not found in propeller file", name))
}

// MissingConnection создаёт ConfigError для deployer'а без connection.
func MissingConnection(deployer, env string) *ConfigError {
	return NewConfigError(ErrMissingConnection, env,
		fmt.Sprintf("environment '%s': deployer '%s' requires connection information", env, deployer))
}
