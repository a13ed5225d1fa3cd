// Package assets publishes the static asset tree into the build output.
package assets

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
)

// Mirror replaces dst with a copy of the src tree and returns the number of
// files published. Files are hard-linked when src and dst share a volume and
// copied otherwise; readers of dst cannot tell the difference.
func Mirror(src, dst string) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, berrors.FileSystem("stat", src, err)
	}
	if !srcInfo.IsDir() {
		return 0, berrors.FileSystem("stat", src, fs.ErrInvalid)
	}
	if src, err = filepath.EvalSymlinks(src); err != nil {
		return 0, berrors.FileSystem("resolve", src, err)
	}

	if err := os.RemoveAll(dst); err != nil {
		return 0, berrors.FileSystem("remove", dst, err)
	}

	files := 0
	linked := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if d.Type()&fs.ModeSymlink != 0 {
				// a linked directory is published as a copy of its tree
				n, err := Mirror(path, target)
				files += n
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		if !info.Mode().IsRegular() {
			slog.Debug("Skipping non-regular asset", logfields.Path(path))
			return nil
		}

		files++
		if d.Type().IsRegular() {
			if err := os.Link(path, target); err == nil {
				linked++
				return nil
			}
		}
		return copyFile(path, target, info.Mode().Perm())
	})
	if err != nil {
		return files, berrors.FileSystem("mirror", src, err)
	}

	slog.Debug("Mirrored assets", logfields.Path(dst), logfields.Count(files), slog.Int("hardlinked", linked))
	return files, nil
}

// copyFile copies a single file from src to dst
func copyFile(src, dst string, perm fs.FileMode) error {
	// #nosec G304 -- src is inside the configured static directory
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	// #nosec G304 -- dst is inside the build output
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}
