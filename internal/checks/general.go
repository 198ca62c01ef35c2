package checks

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/schae234/botbot/internal/fileinfo"
	"github.com/schae234/botbot/internal/model"
)

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// NewFastqCheck flags uncompressed FASTQ files.
func NewFastqCheck(exts []string) Check {
	return NewFunc("fastq", func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		if hasExt(fi, exts) {
			return model.ProbFileIsFastq, true
		}
		return "", false
	}, WithSettings(listSettings(exts)))
}

// NewSamCheck flags SAM files. A SAM file whose BAM conversion already sits
// next to it is reported as a duplicate, so the result depends on the
// sibling and is never cached.
func NewSamCheck() Check {
	return NewFunc("sam", func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		if fi.Ext() != ".sam" {
			return "", false
		}

		bam := fi.Path[:len(fi.Path)-len(".sam")] + ".bam"
		if _, err := os.Stat(bam); err == nil {
			return model.ProbSamAndBamExist, true
		}
		return model.ProbSamShouldCompress, true
	}, ReadsOtherFiles())
}

// NewLargePlaintextCheck flags plain-text files bigger than threshold.
// Content type is sniffed from the first bytes of the file.
func NewLargePlaintextCheck(threshold int64) Check {
	return NewFunc("large-plaintext", func(fi *fileinfo.FileInfo) (model.ProblemCode, bool) {
		if !fi.IsRegular() || fi.Size <= threshold {
			return "", false
		}

		head, err := readHead(fi.Path, sniffLen)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false
			}
			return model.ProbUnknownError, true
		}

		if strings.HasPrefix(http.DetectContentType(head), "text/") {
			return model.ProbFileIsLargePlaintext, true
		}
		return "", false
	}, WithSettings(strconv.FormatInt(threshold, 10)))
}

// readHead reads up to n bytes from the start of path.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the checklist walk
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

func hasExt(fi *fileinfo.FileInfo, exts []string) bool {
	ext := fi.Ext()
	return ext != "" && slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}
