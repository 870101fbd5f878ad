package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/repo"
)

// Pipeline — часть Propeller, которой управляет API.
type Pipeline interface {
	Run(ctx context.Context) error
	Deploy(ctx context.Context, name string) error
	IsRunning() bool
	IsDeploying() bool
	Pending() []string
	PendingDeploys() []string
	Settings() domain.Config
}

// RunReader — чтение журнала runs (repo.RunRepo).
type RunReader interface {
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}

// Handler — обработчик control API.
type Handler struct {
	pipeline Pipeline
	runs     RunReader
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Pipeline Pipeline

	// Runs — журнал runs; nil отключает /runs.
	Runs RunReader

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		pipeline: cfg.Pipeline,
		runs:     cfg.Runs,
		logger:   cfg.Logger.With("component", "api"),
	}
}
