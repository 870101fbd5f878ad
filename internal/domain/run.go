package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один проход по очереди конвейера.
//
// Run создаётся когда:
//   - Propeller.Run начинает выполнять compiler-задачи (PhaseBuild)
//   - очередь deployments начинает опустошаться (PhaseDeploy)
//
// Run хранит результаты всех запущенных stages в порядке их запуска.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Phase — фаза конвейера (build или deploy).
	Phase Phase `json:"phase"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Production — run выполняется в production-режиме.
	Production bool `json:"production"`

	// Stages — результаты stages в порядке запуска.
	Stages []StageResult `json:"stages,omitempty"`

	// StartedAt — время перехода в RUNNING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// StageResult — результат выполнения одного stage.
type StageResult struct {
	// Kind — compiler или deployer.
	Kind StageKind `json:"kind"`

	// Name — ключ плагина в реестре (например "copy", "sftp").
	Name string `json:"name"`

	// Target — строка задачи для compiler или имя окружения для deployer.
	Target string `json:"target"`

	// Status — статус stage.
	Status StageStatus `json:"status"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки stage.
	Error string `json:"error,omitempty"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(phase Phase, production bool) *Run {
	return &Run{
		ID:         uuid.New(),
		Phase:      phase,
		Status:     RunStatusPending,
		Production: production,
		CreatedAt:  time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// StartStage добавляет stage в статусе RUNNING и возвращает его индекс.
func (r *Run) StartStage(kind StageKind, name, target string) int {
	r.Stages = append(r.Stages, StageResult{
		Kind:      kind,
		Name:      name,
		Target:    target,
		Status:    StageStatusRunning,
		StartedAt: time.Now(),
	})
	return len(r.Stages) - 1
}

// FinishStage завершает stage с индексом idx.
// err == nil означает успешное завершение.
func (r *Run) FinishStage(idx int, err error) *StageResult {
	stage := &r.Stages[idx]
	now := time.Now()
	stage.FinishedAt = &now
	if err != nil {
		stage.Status = StageStatusFailed
		stage.Error = err.Error()
	} else {
		stage.Status = StageStatusSucceeded
	}
	return stage
}

// Duration возвращает продолжительность stage.
func (s *StageResult) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
