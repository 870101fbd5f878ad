package stages

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StageTypeConcat — тип compiler'а склейки.
const StageTypeConcat = "concat"

// ConcatCompiler склеивает найденные файлы в один.
//
// Dest разбирается на каталог и имя итогового файла:
//
//	concat: [src/a.js, src/b.js] > dist/app.js
//
// Файлы склеиваются в порядке шаблонов через "\n".
type ConcatCompiler struct{}

// NewConcatCompiler создаёт ConcatCompiler.
func NewConcatCompiler() *ConcatCompiler {
	return &ConcatCompiler{}
}

// Type возвращает тип compiler'а.
func (c *ConcatCompiler) Type() string {
	return StageTypeConcat
}

// Compile склеивает файлы.
func (c *ConcatCompiler) Compile(ctx context.Context, req *CompileRequest) error {
	dir, name := filepath.Split(req.Dest)
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("concat destination %q must name a file", req.Dest)
	}

	matches, err := Expand(req.Sources)
	if err != nil {
		return err
	}

	log := req.logger()
	if len(matches) == 0 {
		log.Warn("no files matched", "sources", req.Sources)
		return nil
	}

	var buf bytes.Buffer
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", m.Path, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}

	if err := writeFile(filepath.Join(dir, name), buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", req.Dest, err)
	}

	log.Debug("files concatenated", "count", len(matches), "dest", req.Dest, "size", humanSize(int64(buf.Len())))
	return nil
}
