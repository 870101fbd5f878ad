// Package api содержит HTTP control API Propeller.
//
// Структура:
//   - handler.go          — Handler с DI (pipeline, журнал runs, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (request id, logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects
//   - pipeline_handler.go — /status, /config, /run, /deploy/{env}
//   - run_handler.go      — /runs (только при включённом журнале)
//
// API монтируется рядом с /metrics в долгоживущих командах.
package api
