package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/propeller/internal/domain"
)

// DefaultConfigFile — имя файла конфигурации по умолчанию.
const DefaultConfigFile = "propeller.json"

// alternates — файлы, которые ищутся, если DefaultConfigFile отсутствует.
var alternates = []string{"propeller.yaml", "propeller.yml"}

// Resolve находит файл конфигурации.
//
// Путь раскрывает "~". Если запрошен файл по умолчанию и его нет,
// проверяются propeller.yaml и propeller.yml в том же каталоге.
func Resolve(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}

	if exists(expanded) {
		return expanded, nil
	}

	if filepath.Base(expanded) == DefaultConfigFile {
		dir := filepath.Dir(expanded)
		for _, name := range alternates {
			candidate := filepath.Join(dir, name)
			if exists(candidate) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
}

// LoadFile читает конфигурацию из файла.
//
// .json декодируется encoding/json, .yaml/.yml — yaml.v3.
// Файл без расширения читается как JSON.
func LoadFile(path string) (domain.Config, error) {
	var cfg domain.Config

	resolved, err := Resolve(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, resolved)
		}
		return cfg, err
	}

	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".json", "":
		err = decodeJSON(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return domain.Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, resolved, err)
	}

	return cfg, nil
}

// Decode разбирает конфигурацию в формате format ("json" или "yaml").
func Decode(data []byte, format string) (domain.Config, error) {
	var cfg domain.Config
	var err error

	switch strings.ToLower(format) {
	case "json":
		err = decodeJSON(data, &cfg)
	case "yaml", "yml":
		err = decodeYAML(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return domain.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func decodeJSON(data []byte, cfg *domain.Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(cfg)
}

func decodeYAML(data []byte, cfg *domain.Config) error {
	return yaml.Unmarshal(data, cfg)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
