package checks

import (
	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/model"
)

// Permission bits inspected by the shared checks.
const (
	ownerExec = 0o100
	groupRead = 0o040
	groupExec = 0o010
)

// NewGroupReadableCheck flags files the group cannot read.
func NewGroupReadableCheck() Check {
	return NewFunc("group-readable", func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		if fi.Mode.Perm()&groupRead == 0 {
			return model.ProbFileNotGroupReadable, true
		}
		return "", false
	})
}

// NewGroupExecutableCheck flags executables the group cannot run.
func NewGroupExecutableCheck() Check {
	return NewFunc("group-executable", func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		perm := fi.Mode.Perm()
		if fi.IsRegular() && perm&ownerExec != 0 && perm&groupExec == 0 {
			return model.ProbFileNotGroupExec, true
		}
		return "", false
	})
}
