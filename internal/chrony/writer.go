package chrony

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrOutputIsSource is returned when the explicit output path names the
// configuration file being read.
var ErrOutputIsSource = errors.New("output path is the source file")

// rename is replaced in tests.
var rename = os.Rename

// SaveServers replaces the server declarations of the configuration file
// with servers.
//
// With opts.OutputPath set the result is written there and opts.Path is
// never modified; an OutputPath naming the same file as opts.Path fails with
// ErrOutputIsSource. Otherwise the result is built in a temporary file next
// to opts.Path, given the original permission bits and renamed over it. On
// any failure before the rename the original file is left as it was.
func SaveServers(servers []string, opts Options) error {
	opts = opts.withDefaults()

	src, err := os.Open(opts.Path)
	if err != nil {
		return &ConfigAccessError{Op: OpRead, Path: opts.Path, Err: err}
	}
	defer src.Close()

	if opts.OutputPath != "" {
		return writeOutput(src, servers, opts)
	}
	return replaceConfig(src, servers, opts)
}

func writeOutput(src *os.File, servers []string, opts Options) error {
	// Creating the output truncates it, so it must not be the source.
	if out, err := os.Stat(opts.OutputPath); err == nil {
		in, err := src.Stat()
		if err != nil {
			return &ConfigAccessError{Op: OpRead, Path: opts.Path, Err: err}
		}
		if os.SameFile(in, out) {
			return &ConfigAccessError{Op: OpWrite, Path: opts.OutputPath, Err: ErrOutputIsSource}
		}
	}

	dst, err := os.Create(opts.OutputPath)
	if err != nil {
		return &ConfigAccessError{Op: OpWrite, Path: opts.OutputPath, Err: err}
	}
	defer dst.Close()

	if err := Rewrite(src, dst, servers, opts.Pattern); err != nil {
		return accessError(err, opts.Path, opts.OutputPath)
	}
	if err := dst.Close(); err != nil {
		return &ConfigAccessError{Op: OpWrite, Path: opts.OutputPath, Err: err}
	}
	return nil
}

func replaceConfig(src *os.File, servers []string, opts Options) error {
	info, err := src.Stat()
	if err != nil {
		return &ConfigAccessError{Op: OpRead, Path: opts.Path, Err: err}
	}
	mode := info.Mode() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)

	// Replace the file a symlink points at, not the link itself.
	target := opts.Path
	if resolved, err := filepath.EvalSymlinks(opts.Path); err == nil {
		target = resolved
	}
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return &ConfigAccessError{Op: OpWrite, Path: dir, Err: err}
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		tmp.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if err := Rewrite(src, tmp, servers, opts.Pattern); err != nil {
		return accessError(err, opts.Path, tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		return &ConfigAccessError{Op: OpWrite, Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ConfigAccessError{Op: OpWrite, Path: tmpPath, Err: err}
	}

	if err := os.Chmod(tmpPath, mode); err != nil {
		return &ConfigAccessError{Op: OpReplace, Path: opts.Path, Err: err}
	}
	if err := rename(tmpPath, target); err != nil {
		return &ConfigAccessError{Op: OpReplace, Path: opts.Path, Err: err}
	}
	renamed = true

	// The rename is committed; a failed directory sync only weakens durability.
	_ = syncDir(dir)
	return nil
}
