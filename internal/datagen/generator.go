package datagen

import (
	"fmt"

	"github.com/pgEdge/pgedge-starload/internal/logging"
)

// ProgressReporter tracks and reports dataset writing progress.
type ProgressReporter struct {
	name             string
	totalRecords     int64
	current          int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(name string, totalRecords int64, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		name:             name,
		totalRecords:     totalRecords,
		progressInterval: interval,
	}
}

// Update adds written records and logs when an interval is crossed.
func (p *ProgressReporter) Update(records int64) {
	old := p.current
	p.current += records

	if p.current/p.progressInterval > old/p.progressInterval {
		pct := float64(p.current) / float64(p.totalRecords) * 100
		logging.Info().
			Str("dataset", p.name).
			Int64("records", p.current).
			Int64("total", p.totalRecords).
			Float64("percent", pct).
			Msg("Writing dataset")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("dataset", p.name).
		Int64("records", p.current).
		Msg("Dataset complete")
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
