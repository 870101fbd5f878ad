package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrNoDatabase — URL базы данных не задан.
	ErrNoDatabase = errors.New("database url is not configured")
)
