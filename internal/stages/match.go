package stages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
)

// globMeta — символы, превращающие сегмент пути в шаблон.
const globMeta = `*?[\`

// Match — файл, найденный по шаблону источника.
type Match struct {
	// Path — путь к файлу.
	Path string

	// Rel — путь относительно базы шаблона (куда файл ляжет в Dest).
	Rel string
}

// Expand раскрывает шаблоны источников в список файлов.
//
// Правила:
//   - "src/**/*.scss" — glob (синтаксис moby/patternmatcher, ** пересекает каталоги)
//   - "!src/vendor/**" — исключение, применяется ко всем шаблонам
//   - "a.txt" — обычный путь; каталог раскрывается рекурсивно
//
// База шаблона — самый длинный префикс пути без glob-символов.
// Отсутствие совпадений не является ошибкой.
// Файл, найденный несколькими шаблонами, возвращается один раз.
func Expand(patterns []string) ([]Match, error) {
	var includes, excludes []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "!") {
			excludes = append(excludes, filepath.Clean(strings.TrimPrefix(p, "!")))
			continue
		}
		includes = append(includes, filepath.Clean(p))
	}

	excluded, err := newExcluder(excludes)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var matches []Match

	add := func(m Match) {
		if seen[m.Path] {
			return
		}
		seen[m.Path] = true
		matches = append(matches, m)
	}

	for _, pattern := range includes {
		found, err := expandPattern(pattern, excluded)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			add(m)
		}
	}

	return matches, nil
}

// GlobBase возвращает базовый каталог шаблона.
//
//	"src/**/*.scss" → "src"
//	"*.txt"         → "."
//	"src/a.txt"     → "src"
func GlobBase(pattern string) string {
	pattern = filepath.Clean(pattern)
	if !hasMeta(pattern) {
		return filepath.Dir(pattern)
	}

	segments := strings.Split(filepath.ToSlash(pattern), "/")
	base := make([]string, 0, len(segments))
	for _, seg := range segments {
		if hasMeta(seg) {
			break
		}
		base = append(base, seg)
	}

	joined := strings.Join(base, "/")
	switch {
	case joined == "" && strings.HasPrefix(filepath.ToSlash(pattern), "/"):
		return string(filepath.Separator)
	case joined == "":
		return "."
	}
	return filepath.FromSlash(joined)
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, globMeta)
}

// expandPattern раскрывает один шаблон без "!".
func expandPattern(pattern string, excluded excluder) ([]Match, error) {
	if !hasMeta(pattern) {
		return expandLiteral(pattern, excluded)
	}

	pm, err := patternmatcher.New([]string{pattern})
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	// parentMatched=false: сопоставляется только сам файл, без его каталогов,
	// иначе "src/*" захватил бы "src/sub/x" через совпавший "src/sub".
	base := GlobBase(pattern)
	return walk(base, excluded, func(path string) (bool, error) {
		return pm.MatchesUsingParentResult(filepath.ToSlash(path), false)
	})
}

// expandLiteral раскрывает путь без glob-символов.
func expandLiteral(path string, excluded excluder) ([]Match, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	if !info.IsDir() {
		if excluded(path) {
			return nil, nil
		}
		return []Match{{Path: path, Rel: filepath.Base(path)}}, nil
	}

	return walk(path, excluded, func(string) (bool, error) {
		return true, nil
	})
}

// walk обходит base и возвращает файлы, для которых match вернул true.
func walk(base string, excluded excluder, match func(path string) (bool, error)) ([]Match, error) {
	if _, err := os.Stat(base); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var matches []Match
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ok, err := match(path)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		matches = append(matches, Match{Path: path, Rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", base, err)
	}
	return matches, nil
}

// excluder сообщает, исключён ли путь.
type excluder func(path string) bool

func newExcluder(patterns []string) (excluder, error) {
	if len(patterns) == 0 {
		return func(string) bool { return false }, nil
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	return func(path string) bool {
		ok, err := pm.MatchesOrParentMatches(path)
		return err == nil && ok
	}, nil
}
