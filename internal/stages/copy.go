package stages

import (
	"context"
	"fmt"
	"path/filepath"
)

// StageTypeCopy — тип compiler'а копирования.
const StageTypeCopy = "copy"

// CopyCompiler копирует найденные файлы в Dest, сохраняя структуру
// относительно базы шаблона.
//
//	copy: assets/img/** > dist/img
//
// assets/img/logo/a.png → dist/img/logo/a.png
type CopyCompiler struct{}

// NewCopyCompiler создаёт CopyCompiler.
func NewCopyCompiler() *CopyCompiler {
	return &CopyCompiler{}
}

// Type возвращает тип compiler'а.
func (c *CopyCompiler) Type() string {
	return StageTypeCopy
}

// Compile копирует файлы.
func (c *CopyCompiler) Compile(ctx context.Context, req *CompileRequest) error {
	matches, err := Expand(req.Sources)
	if err != nil {
		return err
	}

	log := req.logger()
	if len(matches) == 0 {
		log.Warn("no files matched", "sources", req.Sources)
		return nil
	}

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		dst := filepath.Join(req.Dest, m.Rel)
		if _, err := copyFile(m.Path, dst); err != nil {
			return fmt.Errorf("copy %s: %w", m.Path, err)
		}
	}

	log.Debug("files copied", "count", len(matches), "dest", req.Dest)
	return nil
}
