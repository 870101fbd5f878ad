package stages

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

// GitignoreFile — имя файла исключений.
const GitignoreFile = ".gitignore"

// Ignorer отвечает, исключён ли файл правилами .gitignore.
//
// Правила gitignore переводятся в синтаксис patternmatcher:
//   - "/build" — только от корня
//   - "*.log" (без "/") — на любой глубине
//   - "tmp/" — каталог, совпадает вместе с содержимым
//   - "!keep.log" — отмена исключения
type Ignorer struct {
	root    string
	matcher *patternmatcher.PatternMatcher
}

// LoadGitignore читает .gitignore из каталога root.
// Отсутствующий файл даёт пустой Ignorer (ничего не исключено, кроме .git).
func LoadGitignore(root string) (*Ignorer, error) {
	f, err := os.Open(filepath.Join(root, GitignoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewIgnorer(root, nil)
		}
		return nil, fmt.Errorf("open %s: %w", GitignoreFile, err)
	}
	defer f.Close()

	return ParseGitignore(root, f)
}

// ParseGitignore строит Ignorer из содержимого .gitignore.
func ParseGitignore(root string, r io.Reader) (*Ignorer, error) {
	var translated strings.Builder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		translated.WriteString(translateGitignore(scanner.Text()))
		translated.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", GitignoreFile, err)
	}

	// ignorefile убирает комментарии, пустые строки и чистит пути
	patterns, err := ignorefile.ReadAll(strings.NewReader(translated.String()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", GitignoreFile, err)
	}

	return NewIgnorer(root, patterns)
}

// NewIgnorer создаёт Ignorer из готовых шаблонов patternmatcher.
// Это не синтаксис gitignore: "*" не пересекает "/", шаблон без "/"
// совпадает только в корне. Для строк .gitignore есть ParseGitignore.
func NewIgnorer(root string, patterns []string) (*Ignorer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	all := append([]string{".git"}, patterns...)
	pm, err := patternmatcher.New(all)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	return &Ignorer{root: abs, matcher: pm}, nil
}

// Ignored возвращает true, если path исключён.
// Пути вне root не исключаются.
func (i *Ignorer) Ignored(path string) bool {
	if i == nil {
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(i.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}

	ok, err := i.matcher.MatchesOrParentMatches(rel)
	return err == nil && ok
}

// translateGitignore переводит одну строку .gitignore.
func translateGitignore(line string) string {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return line
	}

	negate := strings.HasPrefix(line, "!")
	if negate {
		line = line[1:]
	}

	line = strings.TrimSuffix(line, "/")

	switch {
	case strings.HasPrefix(line, "/"):
		line = strings.TrimPrefix(line, "/")
	case !strings.Contains(line, "/") && !strings.HasPrefix(line, "**"):
		line = "**/" + line
	}

	if negate {
		return "!" + line
	}
	return line
}
