package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		RequestID(h.logger),
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Pipeline
	mux.Handle("GET /api/v1/status", chain(http.HandlerFunc(h.GetStatus)))
	mux.Handle("GET /api/v1/config", chain(http.HandlerFunc(h.GetConfig)))
	mux.Handle("POST /api/v1/run", chain(http.HandlerFunc(h.TriggerRun)))
	mux.Handle("POST /api/v1/deploy/{env}", chain(http.HandlerFunc(h.TriggerDeploy)))

	// Journal
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
}
