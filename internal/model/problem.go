package model

// ProblemCode identifies a kind of problem found on a file.
type ProblemCode string

// Problem codes reported by the checker and the built-in checks.
const (
	ProbDirNotWritable       ProblemCode = "PROB_DIR_NOT_WRITABLE"
	ProbDirNotAccessible     ProblemCode = "PROB_DIR_NOT_ACCESSIBLE"
	ProbBrokenLink           ProblemCode = "PROB_BROKEN_LINK"
	ProbUnknownError         ProblemCode = "PROB_UNKNOWN_ERROR"
	ProbFileNotGroupReadable ProblemCode = "PROB_FILE_NOT_GRPRD"
	ProbFileNotGroupExec     ProblemCode = "PROB_FILE_NOT_GRPEXEC"
	ProbFileIsFastq          ProblemCode = "PROB_FILE_IS_FASTQ"
	ProbSamShouldCompress    ProblemCode = "PROB_SAM_SHOULD_COMPRESS"
	ProbSamAndBamExist       ProblemCode = "PROB_SAM_AND_BAM_EXIST"
	ProbFileIsLargePlaintext ProblemCode = "PROB_FILE_IS_LARGE_PLAINTEXT"
	ProbImageHasLocation     ProblemCode = "PROB_IMAGE_HAS_LOCATION"
)

// ProblemInfo contains the metadata of a problem code.
type ProblemInfo struct {
	Severity Severity
	Header   Header
}

// problemInfoMapping is the single source of truth for problem messages,
// fixes and severities.
var problemInfoMapping = map[ProblemCode]ProblemInfo{
	ProbImageHasLocation: {
		Severity: SeverityCritical,
		Header: Header{
			Message: "Image contains GPS location metadata",
			Fix:     "Strip EXIF metadata before sharing",
		},
	},

	ProbDirNotWritable: {
		Severity: SeverityHigh,
		Header: Header{
			Message: "Directory is not writable by you",
			Fix:     "Ask the directory owner to grant write permission",
		},
	},
	ProbDirNotAccessible: {
		Severity: SeverityHigh,
		Header: Header{
			Message: "Directory cannot be listed",
			Fix:     "chmod g+rx the directory",
		},
	},
	ProbBrokenLink: {
		Severity: SeverityHigh,
		Header: Header{
			Message: "Symbolic link points to a missing file",
			Fix:     "Remove the link or restore its target",
		},
	},
	ProbFileNotGroupReadable: {
		Severity: SeverityHigh,
		Header: Header{
			Message: "File is not group readable",
			Fix:     "chmod g+r the file",
		},
	},
	ProbFileNotGroupExec: {
		Severity: SeverityHigh,
		Header: Header{
			Message: "Executable is not group executable",
			Fix:     "chmod g+x the file",
		},
	},

	ProbSamShouldCompress: {
		Severity: SeverityMedium,
		Header: Header{
			Message: "SAM file should be stored as BAM",
			Fix:     "Convert it with samtools view -b",
		},
	},
	ProbSamAndBamExist: {
		Severity: SeverityMedium,
		Header: Header{
			Message: "SAM file has a BAM copy next to it",
			Fix:     "Delete the SAM file",
		},
	},
	ProbUnknownError: {
		Severity: SeverityMedium,
		Header: Header{
			Message: "File could not be inspected",
			Fix:     "Check the file manually",
		},
	},

	ProbFileIsFastq: {
		Severity: SeverityLow,
		Header: Header{
			Message: "File is an uncompressed FASTQ",
			Fix:     "Compress it with gzip",
		},
	},
	ProbFileIsLargePlaintext: {
		Severity: SeverityLow,
		Header: Header{
			Message: "Large plain-text file",
			Fix:     "Compress it with gzip",
		},
	},
}

// GetProblemInfo returns the metadata for a problem code.
// Unknown codes get a generic header with SeverityInfo.
func GetProblemInfo(code ProblemCode) ProblemInfo {
	if info, ok := problemInfoMapping[code]; ok {
		return info
	}
	return ProblemInfo{
		Severity: SeverityInfo,
		Header: Header{
			Message: "Unknown problem (" + string(code) + ")",
			Fix:     "Investigate the file manually",
		},
	}
}

// GetSeverity returns the severity of a problem code.
func GetSeverity(code ProblemCode) Severity {
	return GetProblemInfo(code).Severity
}

// ProblemList collects problems found during a check run.
// Groups are kept in order of the first occurrence of each code, and items
// within a group in insertion order. A ProblemList is not safe for
// concurrent use.
type ProblemList struct {
	order []ProblemCode
	items map[ProblemCode][]Item
	count int
}

// NewProblemList creates an empty ProblemList.
func NewProblemList() *ProblemList {
	return &ProblemList{
		order: make([]ProblemCode, 0),
		items: make(map[ProblemCode][]Item),
	}
}

// AddProblem records that item has the given problem.
func (pl *ProblemList) AddProblem(item Item, code ProblemCode) {
	if _, ok := pl.items[code]; !ok {
		pl.order = append(pl.order, code)
	}
	pl.items[code] = append(pl.items[code], item)
	pl.count++
}

// Count returns the total number of recorded problems.
func (pl *ProblemList) Count() int {
	return pl.count
}

// Codes returns the recorded problem codes in first-occurrence order.
func (pl *ProblemList) Codes() []ProblemCode {
	codes := make([]ProblemCode, len(pl.order))
	copy(codes, pl.order)
	return codes
}

// Grouping converts the list into a Grouping ready for rendering.
func (pl *ProblemList) Grouping() Grouping {
	grouping := make(Grouping, 0, len(pl.order))
	for _, code := range pl.order {
		items := make([]Item, len(pl.items[code]))
		copy(items, pl.items[code])
		grouping = append(grouping, Group{
			Code:   code,
			Header: GetProblemInfo(code).Header,
			Items:  items,
		})
	}
	return grouping
}
