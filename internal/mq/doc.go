// Package mq связывает Propeller с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect, топология на каждом подключении
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - notifier.go   — Observer, публикующий события runs
//   - consumer.go   — потребление запросов на deploy
//
// Exchanges:
//   - propeller.events (topic) — run.started, run.finished, stage.finished,
//     deploy.requested
//   - propeller.dlq (direct)   — отклонённые запросы
//
// Очередь propeller.deploys.requested читает propeller agent.
// Ошибки конфигурации (неизвестное окружение и т.п.) уходят в
// propeller.dlq.deploys, остальные ошибки возвращают сообщение в очередь.
package mq
