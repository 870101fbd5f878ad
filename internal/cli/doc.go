// Package cli реализует инструмент командной строки Propeller.
//
// # Обзор
//
// CLI читает файл конфигурации (propeller.json или propeller.yaml),
// собирает Propeller со стандартным реестром stages и запускает
// очередь задач и deployments.
//
// # Ключевые компоненты
//
// ## App и Session
//
// App хранит глобальные опции (флаги + PROPELLER_* переменные окружения).
// App.Open собирает Session: Propeller и observers, включённые опциями:
//   - Console — ход run'а в stderr (всегда)
//   - telemetry.Metrics — при --metrics-addr
//   - repo.Journal — при --db-url
//   - mq.Notifier — при --amqp-url
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения и ход run'а — в stderr.
//
// ## Commands
//
//   - run, deploy — разовый запуск
//   - check, stages — проверка конфигурации и список stages
//   - watch, schedule, agent — долгоживущие режимы
//   - history — журнал runs из PostgreSQL
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей *App; поля App читаются только в RunE, после
// разбора флагов.
package cli
