package site

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
)

// FilesLinkName is the build-relative name of the raw document files link.
const FilesLinkName = "files"

// LinkFiles makes the raw document files reachable at <buildRoot>/files via a
// relative symbolic link. An existing entry of that name, whatever it points
// to, is left alone. It reports whether a link was created.
func LinkFiles(buildRoot, filesDir string) (bool, error) {
	link := filepath.Join(buildRoot, FilesLinkName)
	if _, err := os.Lstat(link); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, berrors.FileSystem("lstat", link, err)
	}

	absRoot, err := filepath.Abs(buildRoot)
	if err != nil {
		return false, berrors.FileSystem("abs", buildRoot, err)
	}
	absFiles, err := filepath.Abs(filesDir)
	if err != nil {
		return false, berrors.FileSystem("abs", filesDir, err)
	}
	target, err := filepath.Rel(absRoot, absFiles)
	if err != nil {
		return false, berrors.FileSystem("rel", filesDir, err)
	}

	if err := os.MkdirAll(buildRoot, 0o750); err != nil {
		return false, berrors.FileSystem("mkdir", buildRoot, err)
	}
	if err := os.Symlink(target, link); err != nil {
		return false, berrors.FileSystem("symlink", link, err)
	}
	return true, nil
}
