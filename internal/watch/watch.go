package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/stages"
)

// DefaultDebounce — пауза после последнего события перед запуском.
const DefaultDebounce = 300 * time.Millisecond

// Watcher следит за каталогами исходников и вызывает Trigger,
// когда изменения затихают.
type Watcher struct {
	fs       *fsnotify.Watcher
	dirs     []string
	excludes []string
	ignorer  *stages.Ignorer
	debounce time.Duration
	trigger  func(ctx context.Context) error
	logger   *slog.Logger
}

// Config — конфигурация Watcher.
type Config struct {
	// Patterns — шаблоны исходников задач и окружений.
	Patterns []string

	// Excludes — каталоги, события в которых игнорируются
	// (обычно dest задач, чтобы сборка не перезапускала сама себя).
	Excludes []string

	// Ignorer — дополнительный фильтр (.gitignore).
	Ignorer *stages.Ignorer

	// Debounce — по умолчанию DefaultDebounce.
	Debounce time.Duration

	Trigger func(ctx context.Context) error
	Logger  *slog.Logger
}

// New создаёт Watcher и подписывается на каталоги Patterns рекурсивно.
func New(cfg Config) (*Watcher, error) {
	if cfg.Trigger == nil {
		return nil, errors.New("watch: trigger is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	dirs := Dirs(cfg.Patterns)
	if len(dirs) == 0 {
		return nil, ErrNothingToWatch
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		dirs:     dirs,
		excludes: absPaths(cfg.Excludes),
		ignorer:  cfg.Ignorer,
		debounce: cfg.Debounce,
		trigger:  cfg.Trigger,
		logger:   cfg.Logger.With("component", "watch"),
	}

	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Dirs возвращает существующие каталоги, в которых лежат исходники
// patterns. Исключающие шаблоны ("!...") пропускаются.
func Dirs(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "!") {
			continue
		}

		dir := stages.GlobBase(pattern)
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			dir = filepath.Clean(pattern)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}

		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	sort.Strings(dirs)
	return dirs
}

// Dirs возвращает корневые каталоги наблюдения.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Close освобождает ресурсы fsnotify.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run обрабатывает события до отмены ctx.
// Возвращает nil при отмене и ошибку конфигурации, если Trigger её вернул.
func (w *Watcher) Run(ctx context.Context) error {
	return w.loop(ctx, w.fs.Events, w.fs.Errors)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var changed []string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("watch new directory failed", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			changed = append(changed, event.Name)
			timer.Reset(w.debounce)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			w.logger.Info("changes detected, rebuilding", "files", len(changed))
			changed = changed[:0]
			if err := w.fire(ctx); err != nil {
				return err
			}
		}
	}
}

// fire вызывает Trigger. Ошибки stage только логируются.
func (w *Watcher) fire(ctx context.Context) error {
	err := w.trigger(ctx)
	switch {
	case err == nil:
		w.logger.Info("rebuild completed")
	case ctx.Err() != nil:
		return nil
	case engine.IsConfigError(err):
		w.logger.Error("rebuild aborted", "error", err)
		return err
	default:
		w.logger.Error("rebuild failed", "error", err)
	}
	return nil
}

// relevant отбрасывает chmod, исключённые и игнорируемые пути.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.ignorer.Ignored(event.Name) {
		return false
	}
	return !w.excluded(event.Name)
}

func (w *Watcher) excluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, ex := range w.excludes {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addRecursive подписывается на dir и все вложенные каталоги.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (d.Name() == ".git" || w.ignorer.Ignored(path) || w.excluded(path)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			out = append(out, filepath.Clean(abs))
		}
	}
	return out
}
