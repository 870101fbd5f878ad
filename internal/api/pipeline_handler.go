package api

import (
	"context"
	"net/http"
	"strings"
)

// GetStatus возвращает состояние конвейера.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	Success(w, StatusResponse{
		Running:        h.pipeline.IsRunning(),
		Deploying:      h.pipeline.IsDeploying(),
		Production:     h.pipeline.Settings().IsProduction(),
		PendingTasks:   nonNil(h.pipeline.Pending()),
		PendingDeploys: nonNil(h.pipeline.PendingDeploys()),
	})
}

// GetConfig возвращает текущие настройки.
// GET /api/v1/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	Success(w, ConfigFromDomain(h.pipeline.Settings()))
}

// TriggerRun синхронно выполняет очередь задач.
// Сборка не прерывается, если клиент отключился.
// POST /api/v1/run
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	err := h.pipeline.Run(context.WithoutCancel(r.Context()))
	if HandleError(w, requestLogger(r, h.logger), err) {
		return
	}

	requestLogger(r, h.logger).Info("run finished via api")
	Success(w, TriggerResponse{})
}

// TriggerDeploy запрашивает deploy в окружение.
// Если конвейер занят, запрос ставится в очередь и возвращается 202.
// POST /api/v1/deploy/{env}
func (h *Handler) TriggerDeploy(w http.ResponseWriter, r *http.Request) {
	env := strings.TrimSpace(r.PathValue("env"))
	if env == "" {
		BadRequest(w, "environment is required")
		return
	}

	busy := h.pipeline.IsRunning() || h.pipeline.IsDeploying()
	err := h.pipeline.Deploy(context.WithoutCancel(r.Context()), env)
	if HandleError(w, requestLogger(r, h.logger), err) {
		return
	}

	requestLogger(r, h.logger).Info("deploy requested via api", "environment", env, "queued", busy)
	if busy {
		Accepted(w, TriggerResponse{Queued: true, Environment: env})
		return
	}
	Success(w, TriggerResponse{Environment: env})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
