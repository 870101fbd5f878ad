package stages

import (
	"context"
	"path/filepath"
)

// StageTypeBundle — тип compiler'а сборки JavaScript.
const StageTypeBundle = "bundle"

// StageTypeWebpack — второе имя того же compiler'а, под которым
// он записан в старых propeller.json ("webpack: src > dest").
const StageTypeWebpack = "webpack"

// BundleCompiler собирает JavaScript/TypeScript через esbuild.
//
//	bundle: src/main.ts > dist/app.js
//
// Одна точка входа пишется в Dest (--outfile), несколько — в каталог
// Dest (--outdir). В production добавляется --minify.
type BundleCompiler struct {
	// Command — командная строка esbuild. По умолчанию "esbuild".
	Command string

	// Runner — запуск команды. По умолчанию ExecRunner.
	Runner Runner
}

// NewBundleCompiler создаёт BundleCompiler.
func NewBundleCompiler() *BundleCompiler {
	return &BundleCompiler{
		Command: "esbuild",
		Runner:  ExecRunner{},
	}
}

// Type возвращает тип compiler'а.
func (c *BundleCompiler) Type() string {
	return StageTypeBundle
}

// Compile собирает бандл.
func (c *BundleCompiler) Compile(ctx context.Context, req *CompileRequest) error {
	matches, err := Expand(req.Sources)
	if err != nil {
		return err
	}

	log := req.logger()
	if len(matches) == 0 {
		log.Warn("no entry points matched", "sources", req.Sources)
		return nil
	}

	args := make([]string, 0, len(matches)+3)
	for _, m := range matches {
		args = append(args, m.Path)
	}
	args = append(args, "--bundle")

	if len(matches) == 1 {
		args = append(args, "--outfile="+req.Dest)
	} else {
		args = append(args, "--outdir="+filepath.Dir(req.Dest))
	}

	if req.Production {
		args = append(args, "--minify")
	}

	cmd := command{Line: c.Command, Runner: c.Runner}
	return cmd.run(ctx, log, args...)
}
