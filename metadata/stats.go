package metadata

import (
	"os"
	"syscall"
	"time"
)

// statSnapshot captures a file's owner, permission bits and timestamps so
// they can be restored after a write that replaces the file (§3.3, §5
// "preserve_stats"). A nil *statSnapshot means nothing was captured and
// restore is a no-op.
type statSnapshot struct {
	mode      os.FileMode
	uid, gid  int
	haveOwner bool
	modTime   time.Time
	accTime   time.Time
}

// snapshotStat reads path's current stats. Errors are non-fatal to the
// caller's write path; preserve_stats is best-effort.
func snapshotStat(path string) (*statSnapshot, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	snap := &statSnapshot{mode: fi.Mode(), modTime: fi.ModTime(), accTime: fi.ModTime()}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		snap.uid, snap.gid, snap.haveOwner = int(st.Uid), int(st.Gid), true
		snap.accTime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	}
	return snap, nil
}

// restore re-applies the captured owner, mode and timestamps to path. Best
// effort: a failed Chown (e.g. non-root restoring another uid) does not
// abort the restoration of mode and timestamps.
func (snap *statSnapshot) restore(path string) error {
	if snap == nil {
		return nil
	}
	if snap.haveOwner {
		_ = os.Chown(path, snap.uid, snap.gid)
	}
	if err := os.Chmod(path, snap.mode); err != nil {
		return err
	}
	return os.Chtimes(path, snap.accTime, snap.modTime)
}
