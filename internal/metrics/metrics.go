// Package metrics provides metrics collection for the analysis run.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates scan metrics. Safe for concurrent
// use by the per-file workers.
type Collector struct {
	filesWalked    atomic.Int64
	filesScanned   atomic.Int64
	filesSkipped   atomic.Int64
	duplicateFiles atomic.Int64
	bytesScanned   atomic.Int64
	endpointsFound atomic.Int64

	issuesHigh   atomic.Int64
	issuesMedium atomic.Int64
	issuesLow    atomic.Int64

	// Error breakdown by error type string.
	errorCounts map[string]*atomic.Int64
	errorMu     sync.RWMutex

	// Gauges
	activeWorkers atomic.Int64

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		errorCounts: make(map[string]*atomic.Int64),
		startTime:   time.Now(),
	}
}

// RecordFileWalked records a candidate file found by the walker.
func (c *Collector) RecordFileWalked() {
	c.filesWalked.Add(1)
}

// RecordFileScanned records a successfully scanned file.
func (c *Collector) RecordFileScanned(bytes int64) {
	c.filesScanned.Add(1)
	c.bytesScanned.Add(bytes)
}

// RecordFileSkipped records an unreadable or undecodable file.
func (c *Collector) RecordFileSkipped(errorType string) {
	c.filesSkipped.Add(1)

	c.errorMu.Lock()
	if c.errorCounts[errorType] == nil {
		c.errorCounts[errorType] = &atomic.Int64{}
	}
	c.errorCounts[errorType].Add(1)
	c.errorMu.Unlock()
}

// RecordDuplicateFile records a content-identical file skipped by dedup.
func (c *Collector) RecordDuplicateFile() {
	c.duplicateFiles.Add(1)
}

// RecordEndpoints records extracted endpoints.
func (c *Collector) RecordEndpoints(n int) {
	c.endpointsFound.Add(int64(n))
}

// RecordIssue records a detected issue by severity.
func (c *Collector) RecordIssue(severity string) {
	switch severity {
	case "high":
		c.issuesHigh.Add(1)
	case "medium":
		c.issuesMedium.Add(1)
	case "low":
		c.issuesLow.Add(1)
	}
}

// SetActiveWorkers records the current worker count.
func (c *Collector) SetActiveWorkers(n int64) {
	c.activeWorkers.Store(n)
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	FilesWalked    int64            `json:"files_walked"`
	FilesScanned   int64            `json:"files_scanned"`
	FilesSkipped   int64            `json:"files_skipped"`
	DuplicateFiles int64            `json:"duplicate_files"`
	BytesScanned   int64            `json:"bytes_scanned"`
	EndpointsFound int64            `json:"endpoints_found"`
	IssuesHigh     int64            `json:"issues_high"`
	IssuesMedium   int64            `json:"issues_medium"`
	IssuesLow      int64            `json:"issues_low"`
	ErrorCounts    map[string]int64 `json:"error_counts,omitempty"`
	ActiveWorkers  int64            `json:"active_workers"`
	Elapsed        time.Duration    `json:"elapsed"`
}

// Snapshot returns a point-in-time view of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		FilesWalked:    c.filesWalked.Load(),
		FilesScanned:   c.filesScanned.Load(),
		FilesSkipped:   c.filesSkipped.Load(),
		DuplicateFiles: c.duplicateFiles.Load(),
		BytesScanned:   c.bytesScanned.Load(),
		EndpointsFound: c.endpointsFound.Load(),
		IssuesHigh:     c.issuesHigh.Load(),
		IssuesMedium:   c.issuesMedium.Load(),
		IssuesLow:      c.issuesLow.Load(),
		ActiveWorkers:  c.activeWorkers.Load(),
		Elapsed:        time.Since(c.startTime),
	}

	c.errorMu.RLock()
	if len(c.errorCounts) > 0 {
		s.ErrorCounts = make(map[string]int64, len(c.errorCounts))
		for k, v := range c.errorCounts {
			s.ErrorCounts[k] = v.Load()
		}
	}
	c.errorMu.RUnlock()

	return s
}

// TotalIssues returns the issue count across severities.
func (s *Snapshot) TotalIssues() int64 {
	return s.IssuesHigh + s.IssuesMedium + s.IssuesLow
}

// SkipRate returns the fraction of walked files that were skipped.
func (s *Snapshot) SkipRate() float64 {
	if s.FilesWalked == 0 {
		return 0
	}
	return float64(s.FilesSkipped) / float64(s.FilesWalked)
}

// Summary returns a loggable field map.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"files_walked":  s.FilesWalked,
		"files_scanned": s.FilesScanned,
		"files_skipped": s.FilesSkipped,
		"duplicates":    s.DuplicateFiles,
		"endpoints":     s.EndpointsFound,
		"issues":        s.TotalIssues(),
		"elapsed":       s.Elapsed.String(),
	}
}
