// Package engine содержит разбор и проверку конфигурации конвейера.
//
// Включает:
//   - parser.go   — разбор строк задач "compiler: src > dest"
//   - validate.go — предварительная проверка задач и окружений
//   - errors.go   — ошибки конфигурации (ConfigError)
//
// Engine не запускает stages: он только превращает текст
// конфигурации в domain.Operation и сообщает о невалидных данных.
package engine
