package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/propeller/internal/domain"
)

// RunRepo — журнал runs и их stages в PostgreSQL.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create сохраняет новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO propeller_runs (id, phase, status, production, error, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Phase,
		run.Status,
		run.Production,
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update обновляет статус и время run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE propeller_runs
		SET status = $2, started_at = $3, finished_at = $4, error = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveStage сохраняет stage с позицией pos (insert или update).
func (r *RunRepo) SaveStage(ctx context.Context, runID uuid.UUID, pos int, stage *domain.StageResult) error {
	query := `
		INSERT INTO propeller_stages (run_id, position, kind, name, target, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id, position) DO UPDATE
		SET status = EXCLUDED.status, error = EXCLUDED.error, finished_at = EXCLUDED.finished_at
	`
	_, err := r.pool.Exec(ctx, query,
		runID,
		pos,
		stage.Kind,
		stage.Name,
		stage.Target,
		stage.Status,
		nullString(stage.Error),
		stage.StartedAt,
		stage.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save stage: %w", err)
	}
	return nil
}

// GetByID возвращает run вместе со stages.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, phase, status, production, error, started_at, finished_at, created_at
		FROM propeller_runs
		WHERE id = $1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	stages, err := r.listStages(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Stages = stages
	return run, nil
}

// List возвращает runs, начиная с последних. Stages не загружаются.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}

	query := `
		SELECT id, phase, status, production, error, started_at, finished_at, created_at
		FROM propeller_runs
		WHERE ($1::text IS NULL OR phase = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(filter.Phase)),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (r *RunRepo) listStages(ctx context.Context, runID uuid.UUID) ([]domain.StageResult, error) {
	query := `
		SELECT kind, name, target, status, error, started_at, finished_at
		FROM propeller_stages
		WHERE run_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var stages []domain.StageResult
	for rows.Next() {
		var stage domain.StageResult
		var stageError *string
		if err := rows.Scan(
			&stage.Kind,
			&stage.Name,
			&stage.Target,
			&stage.Status,
			&stageError,
			&stage.StartedAt,
			&stage.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		if stageError != nil {
			stage.Error = *stageError
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// --- Helpers ---

// DefaultListLimit — лимит List по умолчанию.
const DefaultListLimit = 20

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	Phase  domain.Phase
	Status domain.RunStatus
	Limit  int
	Offset int
}

// scanRun сканирует одну строку в Run.
// pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.Phase,
		&run.Status,
		&run.Production,
		&runError,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if runError != nil {
		run.Error = *runError
	}
	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
