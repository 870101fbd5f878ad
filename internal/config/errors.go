package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrConfigNotFound — файл конфигурации не найден.
	ErrConfigNotFound = errors.New("propeller file not found")

	// ErrUnsupportedFormat — расширение файла не поддерживается.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalidConfig — файл не удалось разобрать.
	ErrInvalidConfig = errors.New("invalid propeller file")

	// ErrInvalidOption — невалидное значение опции CLI.
	ErrInvalidOption = errors.New("invalid option")
)
