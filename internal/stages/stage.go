package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/propeller/internal/domain"
)

// Ошибки stages.
var (
	// ErrCompilerNotFound — compiler не найден в реестре.
	ErrCompilerNotFound = errors.New("compiler not found")

	// ErrDeployerNotFound — deployer не найден в реестре.
	ErrDeployerNotFound = errors.New("deployer not found")

	// ErrMissingConnection — deployer'у не переданы параметры подключения.
	ErrMissingConnection = errors.New("no connection information given")

	// ErrInvalidConnection — параметры подключения невалидны.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrCommandFailed — внешняя команда завершилась с ошибкой.
	ErrCommandFailed = errors.New("command failed")

	// ErrTransfer — ошибка передачи файла.
	ErrTransfer = errors.New("transfer failed")
)

// Compiler — интерфейс stage-трансформации.
//
// Compile возвращается, когда вся работа завершена: возврат из метода
// и есть сигнал завершения. Отсутствие подходящих файлов не ошибка.
type Compiler interface {
	// Type возвращает имя compiler'а (ключ в реестре).
	Type() string

	// Compile обрабатывает Sources и пишет результат в Dest.
	Compile(ctx context.Context, req *CompileRequest) error
}

// Deployer — интерфейс stage доставки.
type Deployer interface {
	// Type возвращает имя deployer'а (ключ в реестре).
	Type() string

	// Deploy переносит Sources в Dest целевого окружения.
	Deploy(ctx context.Context, req *DeployRequest) error
}

// ConnectionRequirer реализуют deployers, которым без connection не обойтись.
// Propeller проверяет это до вызова Deploy.
type ConnectionRequirer interface {
	RequiresConnection() bool
}

// ConnectionValidator реализуют deployers, умеющие проверить connection
// без подключения (propeller check).
type ConnectionValidator interface {
	ValidateConnection(conn domain.Connection) error
}

// CompileRequest — входные данные compiler'а.
type CompileRequest struct {
	// Sources — пути или glob-шаблоны источников.
	Sources []string

	// Dest — путь назначения.
	Dest string

	// Production — сборка в production-режиме (минификация и т.п.).
	Production bool

	// Logger — логгер stage.
	Logger *slog.Logger
}

// DeployRequest — входные данные deployer'а.
type DeployRequest struct {
	// Environment — имя окружения.
	Environment string

	// Sources — пути или glob-шаблоны источников.
	Sources []string

	// Dest — путь назначения.
	Dest string

	// Connection — параметры подключения, nil если не заданы.
	Connection domain.Connection

	// Gitignore — исключить файлы из .gitignore.
	Gitignore bool

	// Production — deploy в production-режиме.
	Production bool

	// Logger — логгер stage.
	Logger *slog.Logger
}

// NewCompileRequest создаёт CompileRequest из Operation.
func NewCompileRequest(op *domain.Operation, production bool, logger *slog.Logger) *CompileRequest {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompileRequest{
		Sources:    op.Sources,
		Dest:       op.Dest,
		Production: production,
		Logger:     logger,
	}
}

// NewDeployRequest создаёт DeployRequest из описания окружения.
func NewDeployRequest(name string, env domain.Environment, production bool, logger *slog.Logger) *DeployRequest {
	if logger == nil {
		logger = slog.Default()
	}
	var conn domain.Connection
	if len(env.Connection) > 0 {
		conn = env.Connection
	}
	return &DeployRequest{
		Environment: name,
		Sources:     env.Src,
		Dest:        env.Dest,
		Connection:  conn,
		Gitignore:   env.Gitignore,
		Production:  production,
		Logger:      logger,
	}
}

func (r *CompileRequest) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *DeployRequest) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// GetConfigString извлекает строковое значение из connection.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из connection.
// Строки вида "2222" тоже принимаются: порт часто пишут в кавычках.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			var i int
			if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
				return i
			}
		}
	}
	return 0
}

// GetConfigBool извлекает булево значение из connection.
func GetConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetConfigDuration извлекает длительность в секундах из connection.
func GetConfigDuration(config map[string]any, key string, defaultVal time.Duration) time.Duration {
	if sec := GetConfigInt(config, key); sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return defaultVal
}
