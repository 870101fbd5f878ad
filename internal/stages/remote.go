package stages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"
)

// remoteFS — удалённая файловая система deployer'а (ftp, sftp).
type remoteFS interface {
	// MkdirAll создаёт каталог вместе с родителями.
	MkdirAll(dir string) error

	// ModTime возвращает время модификации файла; ok=false, если файла нет.
	ModTime(p string) (mtime time.Time, ok bool)

	// Upload записывает r в p и выставляет время модификации.
	Upload(p string, r io.Reader, mtime time.Time) error

	// Close закрывает соединение.
	Close() error
}

// upload переносит matches в каталог dest удалённой стороны.
// Файл передаётся, только если на удалённой стороне его нет или он старше.
func upload(ctx context.Context, fsys remoteFS, dest string, matches []Match, log *slog.Logger) error {
	madeDirs := make(map[string]bool)
	uploaded := 0

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := os.Stat(m.Path)
		if err != nil {
			return err
		}

		remote := path.Join(dest, filepath.ToSlash(m.Rel))
		if mtime, ok := fsys.ModTime(remote); ok && !mtime.Before(info.ModTime().Truncate(time.Second)) {
			continue
		}

		dir := path.Dir(remote)
		if !madeDirs[dir] {
			if err := fsys.MkdirAll(dir); err != nil {
				return fmt.Errorf("%w: mkdir %s: %v", ErrTransfer, dir, err)
			}
			madeDirs[dir] = true
		}

		if err := uploadFile(fsys, m.Path, remote, info.ModTime()); err != nil {
			return err
		}
		log.Info(remote, "size", humanSize(info.Size()))
		uploaded++
	}

	log.Debug("upload finished", "uploaded", uploaded, "skipped", len(matches)-uploaded)
	return nil
}

func uploadFile(fsys remoteFS, local, remote string, mtime time.Time) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fsys.Upload(remote, f, mtime); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransfer, remote, err)
	}
	return nil
}

// requireConnection проверяет, что connection задан.
func requireConnection(req *DeployRequest) error {
	if len(req.Connection) == 0 {
		return fmt.Errorf("%w: environment %s", ErrMissingConnection, req.Environment)
	}
	return nil
}
