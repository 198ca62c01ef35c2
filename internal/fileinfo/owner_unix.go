//go:build unix

package fileinfo

import (
	"io/fs"
	"syscall"
)

// statUID extracts the owning UID from the platform stat data.
func statUID(info fs.FileInfo) (int, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return -1, false
	}
	return int(st.Uid), true
}
