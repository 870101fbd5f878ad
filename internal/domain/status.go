package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — run успешно завершён.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — run завершился с ошибкой.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// StageStatus — статус выполнения одного stage внутри run.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED
type StageStatus string

const (
	// StageStatusRunning — stage выполняется.
	StageStatusRunning StageStatus = "RUNNING"

	// StageStatusSucceeded — stage завершился успешно.
	StageStatusSucceeded StageStatus = "SUCCEEDED"

	// StageStatusFailed — stage вернул ошибку.
	StageStatusFailed StageStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s StageStatus) IsTerminal() bool {
	return s == StageStatusSucceeded || s == StageStatusFailed
}

// Phase — фаза конвейера, к которой относится run.
//
// Все build-run'ы завершаются раньше, чем начинается любой deploy-run,
// запрошенный во время сборки.
type Phase string

const (
	// PhaseBuild — выполнение очереди compiler-задач.
	PhaseBuild Phase = "build"

	// PhaseDeploy — выполнение очереди deployments.
	PhaseDeploy Phase = "deploy"
)

// StageKind — вид stage-плагина.
type StageKind string

const (
	// StageKindCompiler — плагин-трансформация (compiler).
	StageKindCompiler StageKind = "compiler"

	// StageKindDeployer — плагин доставки (deployer).
	StageKindDeployer StageKind = "deployer"
)

// String возвращает строковое представление StageKind.
func (k StageKind) String() string {
	return string(k)
}

// ParseRunStatus парсит строку в RunStatus.
func ParseRunStatus(s string) RunStatus {
	switch s {
	case "RUNNING":
		return RunStatusRunning
	case "SUCCEEDED":
		return RunStatusSucceeded
	case "FAILED":
		return RunStatusFailed
	default:
		return RunStatusPending
	}
}
