// Package output provides report formatting for the analyzer.
package output

import (
	"io"

	"github.com/aaronchenweb/apiscan/internal/report"
)

// Writer defines the interface for report writers.
type Writer interface {
	// WriteReport writes the complete analysis report
	WriteReport(r *report.AnalysisReport) error

	// Flush flushes any buffered output
	Flush() error

	// Close closes the writer
	Close() error
}

// Config holds output configuration.
type Config struct {
	Format string
	Pretty bool
}

// NewWriter creates a new report writer.
func NewWriter(w io.Writer, config Config) Writer {
	switch config.Format {
	case "json":
		return NewJSONWriter(w, config.Pretty)
	default:
		return NewJSONWriter(w, config.Pretty)
	}
}
