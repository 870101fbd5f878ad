package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/propeller"
	"github.com/shaiso/propeller/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeStageFailed   ErrorCode = "STAGE_FAILED"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Accepted отправляет 202: запрос поставлен в очередь.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// HandleError преобразует ошибку Propeller или репозитория в HTTP ответ.
// Возвращает false, если err == nil.
//
//	ErrRunInProgress  → 409
//	*ConfigError      → 422
//	*StageError       → 502
//	repo.ErrNotFound  → 404
//	прочее            → 500
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, propeller.ErrRunInProgress):
		Error(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case engine.IsConfigError(err):
		Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidConfig, err.Error())
	case propeller.IsStageError(err):
		Error(w, http.StatusBadGateway, ErrCodeStageFailed, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, "run not found")
	default:
		logger.Error("internal error", "error", err)
		Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
	return true
}
