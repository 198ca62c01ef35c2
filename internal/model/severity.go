package model

// Severity represents how urgently a problem should be addressed.
//
// Severities are iota-based so they can be compared and sorted directly;
// String provides the human-readable name.
type Severity int

const (
	// SeverityInfo indicates a finding that is only worth knowing about.
	SeverityInfo Severity = iota

	// SeverityLow indicates a problem that wastes space but hurts nobody.
	// Examples: uncompressed FASTQ files, large plain-text files.
	SeverityLow

	// SeverityMedium indicates a problem that should be fixed soon.
	// Examples: SAM files that should be BAM, duplicated SAM/BAM data.
	SeverityMedium

	// SeverityHigh indicates a problem that blocks other group members.
	// Examples: files that are not group readable, broken links.
	SeverityHigh

	// SeverityCritical indicates a problem that exposes information that
	// should not be in a shared directory at all.
	// Examples: images carrying GPS coordinates.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}
