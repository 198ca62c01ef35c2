package model

import "time"

// Report is the result of checking one root path.
// Writers and the database both consume this struct.
type Report struct {
	// Root is the path that was checked.
	Root string `json:"root"`

	// DateChecked is when the check was started.
	DateChecked time.Time `json:"date_checked"`

	// Grouping holds the problems grouped by header, in discovery order.
	Grouping Grouping `json:"groups"`

	// Status summarises the run.
	Status Status `json:"status"`

	// ProblemCount is the total number of problems found.
	ProblemCount int `json:"problem_count"`

	// Cached is true when the problems were read from the cache
	// rather than produced by a fresh check.
	Cached bool `json:"cached,omitempty"`
}

// NewReport creates an empty report for root, stamped with the current time.
func NewReport(root string) *Report {
	return &Report{
		Root:        root,
		DateChecked: time.Now(),
		Grouping:    make(Grouping, 0),
	}
}

// SetProblems fills Grouping and ProblemCount from a ProblemList.
func (r *Report) SetProblems(pl *ProblemList) {
	r.Grouping = pl.Grouping()
	r.ProblemCount = pl.Count()
}

// HasProblems reports whether any problems were recorded.
func (r *Report) HasProblems() bool {
	return r.ProblemCount > 0
}

// HighestSeverity returns the most severe problem in the report.
// The second return value is false when the report has no problems.
func (r *Report) HighestSeverity() (Severity, bool) {
	found := false
	highest := SeverityInfo
	for _, group := range r.Grouping {
		if len(group.Items) == 0 {
			continue
		}
		sev := GetSeverity(group.Code)
		if !found || sev > highest {
			highest = sev
			found = true
		}
	}
	return highest, found
}

// CountBySeverity returns the number of flagged items per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, group := range r.Grouping {
		counts[GetSeverity(group.Code)] += len(group.Items)
	}
	return counts
}
