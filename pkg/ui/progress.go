package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// StatusTracker keeps running totals for an export in flight
type StatusTracker struct {
	TotalExported int
	CurrentPage   int
	StartTime     time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// AddPage records one processed page and the messages kept from it
func (st *StatusTracker) AddPage(kept int) {
	st.CurrentPage++
	st.TotalExported += kept
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetExportRate returns the average export rate in messages per minute
func (st *StatusTracker) GetExportRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.TotalExported) / elapsed
}

// PrintProgress prints the running export status on a single line
func (st *StatusTracker) PrintProgress() {
	if quiet {
		return
	}
	fmt.Printf("\r%s page %d | %s messages | %.0f msg/min",
		Green("[EXPORTING]"),
		st.CurrentPage,
		humanize.Comma(int64(st.TotalExported)),
		st.GetExportRate())
}

// PrintSummary prints the final export summary
func (st *StatusTracker) PrintSummary() {
	if quiet {
		return
	}
	fmt.Printf("\n%s %s messages in %s\n",
		Green("[DONE]"),
		humanize.Comma(int64(st.TotalExported)),
		st.GetElapsedTime().Round(time.Millisecond))
}
