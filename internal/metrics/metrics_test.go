package metrics

import (
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.RecordFileWalked()
	c.RecordFileWalked()
	c.RecordFileScanned(1024)
	c.RecordFileSkipped("file_read")
	c.RecordDuplicateFile()
	c.RecordEndpoints(3)
	c.RecordIssue("high")
	c.RecordIssue("medium")
	c.RecordIssue("medium")
	c.RecordIssue("low")

	s := c.Snapshot()

	if s.FilesWalked != 2 {
		t.Errorf("FilesWalked = %d, want 2", s.FilesWalked)
	}
	if s.FilesScanned != 1 || s.BytesScanned != 1024 {
		t.Errorf("FilesScanned = %d BytesScanned = %d, want 1/1024", s.FilesScanned, s.BytesScanned)
	}
	if s.FilesSkipped != 1 || s.ErrorCounts["file_read"] != 1 {
		t.Errorf("skip accounting wrong: %+v", s)
	}
	if s.DuplicateFiles != 1 {
		t.Errorf("DuplicateFiles = %d, want 1", s.DuplicateFiles)
	}
	if s.EndpointsFound != 3 {
		t.Errorf("EndpointsFound = %d, want 3", s.EndpointsFound)
	}
	if s.TotalIssues() != 4 || s.IssuesMedium != 2 {
		t.Errorf("issue accounting wrong: %+v", s)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordFileWalked()
				c.RecordFileScanned(10)
				c.RecordFileSkipped("decode")
				c.RecordIssue("low")
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.FilesWalked != 1000 || s.FilesScanned != 1000 || s.FilesSkipped != 1000 || s.IssuesLow != 1000 {
		t.Errorf("concurrent counts wrong: %+v", s)
	}
	if s.ErrorCounts["decode"] != 1000 {
		t.Errorf("ErrorCounts[decode] = %d, want 1000", s.ErrorCounts["decode"])
	}
}

func TestSnapshot_SkipRate(t *testing.T) {
	c := New()
	if got := c.Snapshot().SkipRate(); got != 0 {
		t.Errorf("SkipRate() on empty collector = %f, want 0", got)
	}

	for i := 0; i < 4; i++ {
		c.RecordFileWalked()
	}
	c.RecordFileSkipped("file_read")

	if got := c.Snapshot().SkipRate(); got != 0.25 {
		t.Errorf("SkipRate() = %f, want 0.25", got)
	}
}
