package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Operation — разобранная строка задачи "compiler: src > dest".
type Operation struct {
	// Stage — имя compiler'а в нижнем регистре.
	Stage string `json:"stage"`

	// Sources — один или несколько путей/шаблонов источников.
	Sources []string `json:"src"`

	// Dest — путь назначения.
	Dest string `json:"dest"`
}

// Config — конфигурация Propeller.
//
// Соответствует файлу propeller.json:
//
//	{
//	    "tasks": ["sass: src/*.scss > dist/css"],
//	    "environments": {
//	        "prod": {"type": "sftp", "src": "dist/**", "dest": "/var/www", "connection": {...}}
//	    },
//	    "production": false
//	}
//
// Nil-поле означает "не задано": Merge не трогает текущее значение.
type Config struct {
	Tasks        []string               `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Environments map[string]Environment `json:"environments,omitempty" yaml:"environments,omitempty"`
	Production   *bool                  `json:"production,omitempty" yaml:"production,omitempty"`
}

// Merge накладывает patch поверх c (shallow merge).
// Каждое заданное поле patch заменяет значение целиком.
func (c Config) Merge(patch Config) Config {
	if patch.Tasks != nil {
		c.Tasks = append([]string(nil), patch.Tasks...)
	}
	if patch.Environments != nil {
		envs := make(map[string]Environment, len(patch.Environments))
		for name, env := range patch.Environments {
			envs[name] = env
		}
		c.Environments = envs
	}
	if patch.Production != nil {
		v := *patch.Production
		c.Production = &v
	}
	return c
}

// IsProduction сообщает, включён ли production-режим.
func (c Config) IsProduction() bool {
	return c.Production != nil && *c.Production
}

// Bool возвращает указатель на v (удобно для Config.Production).
func Bool(v bool) *bool {
	return &v
}

// Environment — описание целевого окружения для deploy.
type Environment struct {
	// Type — ключ deployer'а в реестре ("file", "ftp", "sftp").
	Type string `json:"type" yaml:"type"`

	// Src — один или несколько шаблонов исходных файлов.
	Src StringList `json:"src" yaml:"src"`

	// Dest — путь назначения (локальный или удалённый).
	Dest string `json:"dest" yaml:"dest"`

	// Connection — параметры подключения (опционально).
	Connection Connection `json:"connection,omitempty" yaml:"connection,omitempty"`

	// Gitignore — исключить файлы, игнорируемые .gitignore.
	Gitignore bool `json:"gitignore,omitempty" yaml:"gitignore,omitempty"`
}

// Connection — параметры подключения deployer'а.
// Набор ключей зависит от deployer'а.
type Connection map[string]any

// StringList — список строк, который в файле может быть записан
// либо одной строкой, либо массивом.
type StringList []string

// UnmarshalJSON реализует json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = list
	return nil
}

// UnmarshalYAML реализует yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}
