package metadata

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// tempSuffix is the conventional suffix for rewrite scratch files (§5).
const tempSuffix = ".metadata_edit"

// scratchFile is a tempfile guard: it unlinks the tempfile on every error
// path and is disarmed only after a successful rename over the source
// (Design Notes §9, "tempfile safety").
type scratchFile struct {
	f       *os.File
	path    string
	armed   bool
	dirHint string
}

// newScratchFile creates a tempfile adjacent to sourcePath, or under dir if
// dir is non-empty (the optional tempfile prefix directory of §4.5.4/§5).
func newScratchFile(sourcePath, dir string) (*scratchFile, error) {
	base := filepath.Dir(sourcePath)
	if dir != "" {
		base = dir
	}
	f, err := os.CreateTemp(base, filepath.Base(sourcePath)+tempSuffix+"-*")
	if err != nil {
		return nil, err
	}
	return &scratchFile{f: f, path: f.Name(), armed: true, dirHint: dir}, nil
}

// abort unlinks the tempfile. Safe to call multiple times and after a
// successful commit (a no-op once disarmed).
func (s *scratchFile) abort() {
	if s == nil || !s.armed {
		return
	}
	s.f.Close()
	os.Remove(s.path)
	s.armed = false
}

// commit closes the tempfile and renames it over sourcePath, falling back
// to a cross-filesystem copy-then-unlink when the tempfile's directory
// (set via an explicit prefix) is on a different mount than sourcePath.
func (s *scratchFile) commit(sourcePath string) error {
	if err := s.f.Close(); err != nil {
		s.abort()
		return err
	}
	if err := os.Rename(s.path, sourcePath); err != nil {
		if !isCrossDeviceError(err) {
			s.abort()
			return err
		}
		if cerr := copyFileContents(s.path, sourcePath); cerr != nil {
			s.abort()
			return cerr
		}
		os.Remove(s.path)
	}
	s.armed = false
	return nil
}

// copyFileContents copies src to dst, truncating dst, preserving dst's
// existing permissions if it exists.
func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(dst); err == nil {
		mode = fi.Mode()
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// isCrossDeviceError reports whether err is the "invalid cross-device
// link" failure os.Rename returns when src and dst sit on different
// filesystems (the case the original `@@@ to fully support` comments in
// the rewrite protocol left incomplete; here it is always handled).
func isCrossDeviceError(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	if !ok {
		return false
	}
	errno, ok := linkErr.Err.(syscall.Errno)
	return ok && errno == syscall.EXDEV
}
