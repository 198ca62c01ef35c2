package checker

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// DefaultBarWidth is the number of cells in a progress bar.
const DefaultBarWidth = 40

// NewProgressBar returns a ProgressFunc that redraws a bar such as
//
//	[################------------------------] 40%
//
// on w, ending with a carriage return so the next call overwrites it.
// A newline is written once done reaches total.
func NewProgressBar(w io.Writer, width int) ProgressFunc {
	if width <= 0 {
		width = DefaultBarWidth
	}

	return func(done, total int) {
		if total <= 0 {
			return
		}

		perc := float64(done) / float64(total)
		filled := int(math.Ceil(perc * float64(width)))
		filled = min(max(filled, 0), width)

		_, _ = fmt.Fprintf(w, "[%s%s] %d%%\r",
			strings.Repeat("#", filled),
			strings.Repeat("-", width-filled),
			int(math.Round(perc*100)),
		)
		if done >= total {
			_, _ = fmt.Fprintln(w)
		}
	}
}
