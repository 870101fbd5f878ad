package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shaiso/propeller/internal/domain"
)

var (
	// taskSeparators — разделители сегментов задачи.
	taskSeparators = regexp.MustCompile(`:|>`)

	// sourceListOpen / sourceListClose — скобки списка источников.
	sourceListOpen  = regexp.MustCompile(`^\s*\[\s*`)
	sourceListClose = regexp.MustCompile(`\s*\]\s*$`)

	// sourceSeparator — разделитель элементов списка источников.
	sourceSeparator = regexp.MustCompile(`\s*,\s*`)
)

// ParseTask разбирает строку задачи.
//
// Формат:
//
//	compiler: src > dest
//	compiler: [src1, src2] > dest
//
// Любая строка, которая после разбиения по ':' и '>' не даёт ровно три
// сегмента, возвращает ConfigError с ErrInvalidTask.
// Частично заполненная Operation никогда не возвращается.
func ParseTask(line string) (*domain.Operation, error) {
	segments := taskSeparators.Split(line, -1)
	if len(segments) != 3 {
		return nil, invalidTask(line, fmt.Sprintf("expected 3 segments, got %d", len(segments)))
	}

	stage := strings.ToLower(strings.TrimSpace(segments[0]))
	if stage == "" {
		return nil, invalidTask(line, "empty compiler name")
	}

	dest := strings.TrimSpace(segments[2])
	if dest == "" {
		return nil, invalidTask(line, "empty destination")
	}

	sources := parseSources(segments[1])
	if len(sources) == 0 {
		return nil, invalidTask(line, "no sources")
	}

	return &domain.Operation{
		Stage:   stage,
		Sources: sources,
		Dest:    dest,
	}, nil
}

// parseSources разбирает выражение источников: "a" или "[a, b]".
func parseSources(expr string) []string {
	expr = strings.TrimSpace(expr)
	expr = sourceListOpen.ReplaceAllString(expr, "")
	expr = sourceListClose.ReplaceAllString(expr, "")

	parts := sourceSeparator.Split(expr, -1)
	sources := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sources = append(sources, p)
	}
	return sources
}

// FormatTask собирает строку задачи из Operation.
// ParseTask(FormatTask(op)) возвращает op.
func FormatTask(op *domain.Operation) string {
	src := strings.Join(op.Sources, ", ")
	if len(op.Sources) != 1 {
		src = "[" + src + "]"
	}
	return fmt.Sprintf("%s: %s > %s", op.Stage, src, op.Dest)
}

func invalidTask(line, reason string) *ConfigError {
	return NewConfigError(ErrInvalidTask, line,
		fmt.Sprintf("task '%s' is invalid: %s", line, reason))
}
