// Package repo хранит журнал runs в PostgreSQL.
//
// Таблицы (schema.sql):
//   - propeller_runs   — один run (build или deploy)
//   - propeller_stages — stages run'а по позиции
//
// Journal подключается к Propeller как Observer и пишет каждое
// событие жизненного цикла через RunRepo.
package repo
