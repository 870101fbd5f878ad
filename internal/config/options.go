// Package config содержит опции CLI и загрузку файла конфигурации.
//
// Опции задаются флагами или переменными окружения с префиксом
// PROPELLER_ ("--log-level" → PROPELLER_LOG_LEVEL). Флаг, указанный
// явно, важнее переменной окружения.
//
// Файл конфигурации (propeller.json или propeller.yaml) описывает
// задачи и окружения и читается через LoadFile.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "PROPELLER"

// Имена флагов.
const (
	FlagConfig      = "config"
	FlagProduction  = "production"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
	FlagJSON        = "json"
	FlagDatabaseURL = "db-url"
	FlagAMQPURL     = "amqp-url"
	FlagMetricsAddr = "metrics-addr"
)

// Options — глобальные опции CLI.
type Options struct {
	ConfigPath  string // путь к файлу конфигурации
	Production  bool   // production-режим (перекрывает "production" из файла)
	LogLevel    string // debug, info, warn, error
	LogFormat   string // text или json
	JSON        bool   // вывод результатов команд в JSON
	DatabaseURL string // PostgreSQL для журнала runs (опционально)
	AMQPURL     string // RabbitMQ для событий и agent (опционально)
	MetricsAddr string // адрес /metrics, /healthz и control API (опционально)
}

// NewOptions возвращает Options со значениями по умолчанию.
func NewOptions() *Options {
	return &Options{
		ConfigPath: DefaultConfigFile,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// BindFlags регистрирует флаги опций в fs.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, FlagConfig, "c", o.ConfigPath, "Path to the propeller file (JSON or YAML)")
	fs.BoolVarP(&o.Production, FlagProduction, "p", o.Production, "Build and deploy in production mode")
	fs.StringVar(&o.LogLevel, FlagLogLevel, o.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&o.LogFormat, FlagLogFormat, o.LogFormat, "Log format: text or json")
	fs.BoolVar(&o.JSON, FlagJSON, o.JSON, "Print command results as JSON")
	fs.StringVar(&o.DatabaseURL, FlagDatabaseURL, o.DatabaseURL, "PostgreSQL URL for the run journal")
	fs.StringVar(&o.AMQPURL, FlagAMQPURL, o.AMQPURL, "RabbitMQ URL for run events and deploy requests")
	fs.StringVar(&o.MetricsAddr, FlagMetricsAddr, o.MetricsAddr, "Serve /metrics, /healthz and the control API on this address")
}

// Validate проверяет значения опций.
func (o *Options) Validate() error {
	switch strings.ToLower(o.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q (expected debug, info, warn, or error)", ErrInvalidOption, o.LogLevel)
	}

	switch strings.ToLower(o.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q (expected text or json)", ErrInvalidOption, o.LogFormat)
	}

	if strings.TrimSpace(o.ConfigPath) == "" {
		return fmt.Errorf("%w: config path is empty", ErrInvalidOption)
	}
	return nil
}

// NewViper создаёт viper, читающий переменные окружения PROPELLER_*.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// ApplyEnvironment переносит значения из v во флаги, не заданные явно.
//
// Порядок приоритетов: явный флаг > переменная окружения > значение
// по умолчанию.
func ApplyEnvironment(v *viper.Viper, sets ...*pflag.FlagSet) error {
	for _, fs := range sets {
		if fs == nil {
			continue
		}
		if err := v.BindPFlags(fs); err != nil {
			return err
		}
	}

	var firstErr error
	for _, fs := range sets {
		if fs == nil {
			continue
		}
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Changed || !v.IsSet(f.Name) {
				return
			}
			val := fmt.Sprintf("%v", v.Get(f.Name))
			if val == "" || val == f.Value.String() {
				return
			}
			if err := f.Value.Set(val); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("%w: %s: %v", ErrInvalidOption, f.Name, err)
			}
		})
	}
	return firstErr
}
