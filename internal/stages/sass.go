package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StageTypeSass — тип compiler'а Sass.
const StageTypeSass = "sass"

// SassCompiler компилирует .scss/.sass в CSS через внешний CLI sass.
//
//	sass: src/styles/**/*.scss > dist/css
//
// src/styles/pages/home.scss → dist/css/pages/home.css.
// Partials (имя начинается с "_") самостоятельно не компилируются.
type SassCompiler struct {
	// Command — командная строка sass. По умолчанию "sass".
	Command string

	// Runner — запуск команды. По умолчанию ExecRunner.
	Runner Runner
}

// NewSassCompiler создаёт SassCompiler.
func NewSassCompiler() *SassCompiler {
	return &SassCompiler{
		Command: "sass",
		Runner:  ExecRunner{},
	}
}

// Type возвращает тип compiler'а.
func (c *SassCompiler) Type() string {
	return StageTypeSass
}

// Compile компилирует стили.
func (c *SassCompiler) Compile(ctx context.Context, req *CompileRequest) error {
	matches, err := Expand(req.Sources)
	if err != nil {
		return err
	}

	log := req.logger()
	cmd := command{Line: c.Command, Runner: c.Runner}

	flags := []string{"--embed-source-map"}
	if req.Production {
		flags = []string{"--style=compressed", "--no-source-map"}
	}

	compiled := 0
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		ext := filepath.Ext(m.Path)
		if ext != ".scss" && ext != ".sass" {
			continue
		}
		if strings.HasPrefix(filepath.Base(m.Path), "_") {
			continue
		}

		dst := filepath.Join(req.Dest, strings.TrimSuffix(m.Rel, ext)+".css")
		if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}

		args := append(append([]string{}, flags...), m.Path, dst)
		if err := cmd.run(ctx, log, args...); err != nil {
			return err
		}
		compiled++
	}

	if compiled == 0 {
		log.Warn("no stylesheets matched", "sources", req.Sources)
		return nil
	}

	log.Debug("stylesheets compiled", "count", compiled, "dest", req.Dest)
	return nil
}
