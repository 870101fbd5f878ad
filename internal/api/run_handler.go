package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?phase=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		NotFound(w, "run journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := repo.RunFilter{
		Limit: repo.DefaultListLimit,
	}

	if phase := q.Get("phase"); phase != "" {
		filter.Phase = domain.Phase(phase)
	}
	if status := q.Get("status"); status != "" {
		filter.Status = domain.RunStatus(strings.ToUpper(status))
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			BadRequest(w, "invalid offset")
			return
		}
		filter.Offset = offset
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleError(w, requestLogger(r, h.logger), err) {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает run со stages.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		NotFound(w, "run journal is disabled")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleError(w, requestLogger(r, h.logger), err) {
		return
	}

	Success(w, RunFromDomain(*run))
}
