package report

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/schae234/botbot/internal/model"
)

// UnknownOwner is printed in place of an owner that could not be resolved.
const UnknownOwner = "<unknown>"

// ErrFormattingPrecondition is the class of all input errors rejected by Render.
// Every specific precondition error below wraps it, so callers can test for
// the whole class with errors.Is.
var ErrFormattingPrecondition = errors.New("formatting precondition violated")

// Render precondition errors.
var (
	// ErrNegativeFileCount is returned when Status.Files is negative.
	ErrNegativeFileCount = fmt.Errorf("%w: file count must be non-negative", ErrFormattingPrecondition)

	// ErrInvalidElapsed is returned when Status.Seconds is negative, NaN or infinite.
	ErrInvalidElapsed = fmt.Errorf("%w: elapsed seconds must be a non-negative finite number", ErrFormattingPrecondition)

	// ErrEmptyMessage is returned when a group header has no message.
	ErrEmptyMessage = fmt.Errorf("%w: header message is empty", ErrFormattingPrecondition)

	// ErrEmptyFix is returned when a group header has no fix.
	ErrEmptyFix = fmt.Errorf("%w: header fix is empty", ErrFormattingPrecondition)

	// ErrEmptyPath is returned when an item has no path.
	ErrEmptyPath = fmt.Errorf("%w: item path is empty", ErrFormattingPrecondition)
)

// Render produces the plain-text report for grouping and status.
//
// Each group is written as
//
//	<message>:
//	   (To fix: <fix>)
//	   - <path>: owned by <owner>
//
// followed by one blank line, and the text ends with the summary line
// "Checked <files> files in <seconds> seconds.". Lines are separated by
// "\n" and the result has no trailing newline.
//
// Render is a pure function. Invalid input is rejected before any text is
// produced; the returned error wraps ErrFormattingPrecondition.
func Render(grouping model.Grouping, status model.Status) (string, error) {
	if err := validate(grouping, status); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, group := range grouping {
		writeGroup(&sb, group)
	}
	sb.WriteString(SummaryLine(status))

	return sb.String(), nil
}

// writeGroup writes one group and its trailing blank line.
func writeGroup(sb *strings.Builder, group model.Group) {
	sb.WriteString(group.Header.Message)
	sb.WriteString(":\n")
	sb.WriteString("   (To fix: ")
	sb.WriteString(group.Header.Fix)
	sb.WriteString(")\n")

	for _, item := range group.Items {
		sb.WriteString("   - ")
		sb.WriteString(item.Path)
		sb.WriteString(": owned by ")
		sb.WriteString(ownerName(item))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// SummaryLine returns the closing line of a text report.
func SummaryLine(status model.Status) string {
	return "Checked " + strconv.Itoa(status.Files) + " files in " + FormatSeconds(status.Seconds) + " seconds."
}

// FormatSeconds formats an elapsed time with exactly two decimals.
// The value is correctly rounded from its binary representation, with exact
// ties rounded half to even (0.125 -> "0.12", 0.375 -> "0.38").
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64)
}

// ownerName returns the item's owner or UnknownOwner.
func ownerName(item model.Item) string {
	if item.Owner == "" {
		return UnknownOwner
	}
	return item.Owner
}

// validate checks the Render preconditions.
// It is shared by every writer so that none of them emits partial output
// for input the text renderer would reject.
func validate(grouping model.Grouping, status model.Status) error {
	if status.Files < 0 {
		return fmt.Errorf("%w (got %d)", ErrNegativeFileCount, status.Files)
	}
	if status.Seconds < 0 || math.IsNaN(status.Seconds) || math.IsInf(status.Seconds, 0) {
		return fmt.Errorf("%w (got %v)", ErrInvalidElapsed, status.Seconds)
	}

	for i, group := range grouping {
		if group.Header.Message == "" {
			return fmt.Errorf("group %d: %w", i, ErrEmptyMessage)
		}
		if group.Header.Fix == "" {
			return fmt.Errorf("group %d (%s): %w", i, group.Header.Message, ErrEmptyFix)
		}
		for j, item := range group.Items {
			if item.Path == "" {
				return fmt.Errorf("group %d (%s) item %d: %w", i, group.Header.Message, j, ErrEmptyPath)
			}
		}
	}

	return nil
}
