//go:build !unix

package fileinfo

import "io/fs"

// statUID is unsupported on this platform; owners are always unknown.
func statUID(fs.FileInfo) (int, bool) {
	return -1, false
}
