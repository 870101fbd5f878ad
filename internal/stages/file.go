package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StageTypeFile — тип deployer'а в локальную файловую систему.
const StageTypeFile = "file"

// FileDeployer копирует файлы в локальный каталог Dest.
//
// Копируются только изменённые файлы: назначения нет или оно старше
// источника. Время модификации сохраняется, поэтому повторный deploy
// без изменений ничего не копирует.
//
// Конфигурация окружения:
//
//	{
//	    "type": "file",
//	    "src": "dist/**",
//	    "dest": "/srv/www",
//	    "gitignore": true
//	}
//
// Connection не используется.
type FileDeployer struct {
	// Root — каталог, из которого читается .gitignore. По умолчанию ".".
	Root string
}

// NewFileDeployer создаёт FileDeployer.
func NewFileDeployer() *FileDeployer {
	return &FileDeployer{Root: "."}
}

// Type возвращает тип deployer'а.
func (d *FileDeployer) Type() string {
	return StageTypeFile
}

// Deploy копирует изменённые файлы.
func (d *FileDeployer) Deploy(ctx context.Context, req *DeployRequest) error {
	if req.Dest == "" {
		return fmt.Errorf("%w: destination is empty", ErrInvalidConnection)
	}

	matches, err := matchDeploySources(req, d.Root)
	if err != nil {
		return err
	}

	log := req.logger().With("environment", req.Environment)
	if len(matches) == 0 {
		log.Warn("no files matched", "sources", req.Sources)
		return nil
	}

	copied := 0
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := os.Stat(m.Path)
		if err != nil {
			return err
		}

		dst := filepath.Join(req.Dest, m.Rel)
		stale, err := isStale(info.ModTime(), dst)
		if err != nil {
			return err
		}
		if !stale {
			continue
		}

		n, err := copyFile(m.Path, dst)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTransfer, m.Path, err)
		}
		log.Info(dst, "size", humanSize(n))
		copied++
	}

	log.Debug("deploy finished", "copied", copied, "skipped", len(matches)-copied)
	return nil
}

// matchDeploySources раскрывает Sources и применяет .gitignore, если нужно.
func matchDeploySources(req *DeployRequest, root string) ([]Match, error) {
	matches, err := Expand(req.Sources)
	if err != nil {
		return nil, err
	}
	if !req.Gitignore {
		return matches, nil
	}

	if root == "" {
		root = "."
	}
	ignorer, err := LoadGitignore(root)
	if err != nil {
		return nil, err
	}

	kept := matches[:0]
	for _, m := range matches {
		if !ignorer.Ignored(m.Path) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
