package model

import "time"

// Header describes a category of problem: what is wrong and how to fix it.
// One Header exists per distinct problem category.
type Header struct {
	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Fix is a human-readable remediation hint.
	Fix string `json:"fix"`
}

// Item is a single flagged filesystem entry.
type Item struct {
	// Path is the filesystem path of the entry.
	Path string `json:"path"`

	// Owner is the user name owning Path.
	// It is empty when the owner could not be resolved.
	Owner string `json:"owner"`
}

// Group pairs a Header with the items that violate it.
type Group struct {
	// Code is the problem code the group was built from, if any.
	Code ProblemCode `json:"code,omitempty"`

	// Header describes the problem.
	Header Header `json:"header"`

	// Items are the flagged entries, in the order they were found.
	Items []Item `json:"items"`
}

// Grouping is an ordered collection of groups.
// Order is significant and is preserved exactly as built: groups are never
// sorted or merged, even when two headers carry identical text.
type Grouping []Group

// Add appends a new group for header with the given items.
func (g *Grouping) Add(header Header, items ...Item) {
	*g = append(*g, Group{Header: header, Items: items})
}

// ItemCount returns the total number of items across all groups.
func (g Grouping) ItemCount() int {
	n := 0
	for _, group := range g {
		n += len(group.Items)
	}
	return n
}

// Status is the summary of a check run.
type Status struct {
	// Files is the number of files checked.
	Files int `json:"files"`

	// Seconds is the elapsed check time in seconds.
	Seconds float64 `json:"seconds"`
}

// NewStatus creates a Status from a file count and an elapsed duration.
func NewStatus(files int, elapsed time.Duration) Status {
	return Status{
		Files:   files,
		Seconds: elapsed.Seconds(),
	}
}
