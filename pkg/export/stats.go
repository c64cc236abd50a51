package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	errs "dcexport/pkg/errors"
)

// Stats describes an export artifact, derived by re-scanning it on disk
type Stats struct {
	Path      string
	Exists    bool
	SizeBytes int64
	RowCount  int
}

// Scan gathers artifact statistics. RowCount is the number of logical CSV
// records minus the header; payloads may contain embedded newlines, so
// physical line counts would overcount.
func Scan(path string) (Stats, error) {
	stats := Stats{Path: path}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, &errs.Error{
			Type:    errs.ErrorTypeIO,
			Message: fmt.Sprintf("failed to stat artifact: %v", err),
		}
	}

	stats.Exists = true
	stats.SizeBytes = info.Size()

	file, err := os.Open(path)
	if err != nil {
		return stats, &errs.Error{
			Type:    errs.ErrorTypeIO,
			Message: fmt.Sprintf("failed to open artifact: %v", err),
		}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = false

	records := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, &errs.Error{
				Type:    errs.ErrorTypeIO,
				Message: fmt.Sprintf("failed to scan artifact: %v", err),
			}
		}
		records++
	}

	if records > 0 {
		stats.RowCount = records - 1 // exclude header
	}

	return stats, nil
}
