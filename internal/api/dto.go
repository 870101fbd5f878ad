package api

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/propeller/internal/domain"
)

// Status DTOs

// StatusResponse — состояние конвейера.
type StatusResponse struct {
	Running        bool     `json:"running"`
	Deploying      bool     `json:"deploying"`
	Production     bool     `json:"production"`
	PendingTasks   []string `json:"pending_tasks"`
	PendingDeploys []string `json:"pending_deploys"`
}

// Config DTOs

// EnvironmentResponse — окружение без параметров подключения.
type EnvironmentResponse struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Src           []string `json:"src"`
	Dest          string   `json:"dest"`
	HasConnection bool     `json:"has_connection"`
	Gitignore     bool     `json:"gitignore,omitempty"`
}

// ConfigResponse — текущие настройки. Секреты подключений не отдаются.
type ConfigResponse struct {
	Tasks        []string              `json:"tasks"`
	Environments []EnvironmentResponse `json:"environments"`
	Production   bool                  `json:"production"`
}

// ConfigFromDomain конвертирует domain.Config в ConfigResponse.
// Окружения отсортированы по имени.
func ConfigFromDomain(cfg domain.Config) ConfigResponse {
	resp := ConfigResponse{
		Tasks:        append([]string{}, cfg.Tasks...),
		Environments: make([]EnvironmentResponse, 0, len(cfg.Environments)),
		Production:   cfg.IsProduction(),
	}
	for name, env := range cfg.Environments {
		resp.Environments = append(resp.Environments, EnvironmentResponse{
			Name:          name,
			Type:          env.Type,
			Src:           append([]string{}, env.Src...),
			Dest:          env.Dest,
			HasConnection: len(env.Connection) > 0,
			Gitignore:     env.Gitignore,
		})
	}
	sort.Slice(resp.Environments, func(i, j int) bool {
		return resp.Environments[i].Name < resp.Environments[j].Name
	})
	return resp
}

// Trigger DTOs

// TriggerResponse — результат запуска run или deploy.
type TriggerResponse struct {
	// Queued — запрос поставлен в очередь и будет выполнен позже.
	Queued      bool   `json:"queued"`
	Environment string `json:"environment,omitempty"`
}

// Run DTOs

// RunResponse — ответ с run.
type RunResponse struct {
	ID         uuid.UUID       `json:"id"`
	Phase      domain.Phase    `json:"phase"`
	Status     string          `json:"status"`
	Production bool            `json:"production"`
	Error      string          `json:"error,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Stages     []StageResponse `json:"stages,omitempty"`
}

// StageResponse — ответ со stage.
type StageResponse struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	Target     string     `json:"target"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	resp := RunResponse{
		ID:         r.ID,
		Phase:      r.Phase,
		Status:     string(r.Status),
		Production: r.Production,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		CreatedAt:  r.CreatedAt,
	}
	for _, s := range r.Stages {
		resp.Stages = append(resp.Stages, StageResponse{
			Kind:       s.Kind.String(),
			Name:       s.Name,
			Target:     s.Target,
			Status:     string(s.Status),
			Error:      s.Error,
			StartedAt:  s.StartedAt,
			FinishedAt: s.FinishedAt,
		})
	}
	return resp
}
