// Package telemetry обеспечивает наблюдаемость Propeller.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики (observer runs и stages)
//   - server.go  — HTTP сервер /healthz + /metrics
//
// Долгоживущие команды (watch, schedule, agent) экспортируют метрики
// на /metrics, если задан --metrics-addr. На том же адресе cli монтирует
// control API (пакет api).
package telemetry
