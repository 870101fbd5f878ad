package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/propeller/internal/domain"
)

const journalTimeout = 5 * time.Second

// RunStore — хранилище, в которое Journal пишет runs.
// Реализуется RunRepo.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	SaveStage(ctx context.Context, runID uuid.UUID, pos int, stage *domain.StageResult) error
}

// Journal записывает жизненный цикл runs в RunStore.
//
// Реализует propeller.Observer. Ошибки записи логируются и не
// прерывают run. Запись выполняется и после отмены ctx run'а,
// чтобы в журнале оказался финальный статус.
type Journal struct {
	store  RunStore
	logger *slog.Logger
}

// NewJournal создаёт Journal.
func NewJournal(store RunStore, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		store:  store,
		logger: logger.With("component", "journal"),
	}
}

// RunStarted создаёт запись run.
func (j *Journal) RunStarted(ctx context.Context, run *domain.Run) {
	j.write(ctx, "create run", run, func(ctx context.Context) error {
		return j.store.Create(ctx, run)
	})
}

// StageStarted создаёт запись stage.
func (j *Journal) StageStarted(ctx context.Context, run *domain.Run, stage *domain.StageResult) {
	j.saveStage(ctx, run, stage)
}

// StageFinished обновляет запись stage.
func (j *Journal) StageFinished(ctx context.Context, run *domain.Run, stage *domain.StageResult) {
	j.saveStage(ctx, run, stage)
}

// RunFinished обновляет статус run.
func (j *Journal) RunFinished(ctx context.Context, run *domain.Run) {
	j.write(ctx, "update run", run, func(ctx context.Context) error {
		return j.store.Update(ctx, run)
	})
}

func (j *Journal) saveStage(ctx context.Context, run *domain.Run, stage *domain.StageResult) {
	pos := stageIndex(run, stage)
	j.write(ctx, "save stage", run, func(ctx context.Context) error {
		return j.store.SaveStage(ctx, run.ID, pos, stage)
	})
}

func (j *Journal) write(ctx context.Context, op string, run *domain.Run, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		j.logger.Warn("journal write failed",
			"op", op,
			"run_id", run.ID,
			"error", err,
		)
	}
}

// stageIndex возвращает позицию stage в run.Stages.
// Stage, не найденный по адресу, считается последним.
func stageIndex(run *domain.Run, stage *domain.StageResult) int {
	for i := range run.Stages {
		if &run.Stages[i] == stage {
			return i
		}
	}
	return len(run.Stages) - 1
}
