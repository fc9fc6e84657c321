// Package state holds per-run scan state: content deduplication of
// vendored or symlinked file copies so endpoints are not double-counted.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// ContentDeduplicator detects files with identical content. A Bloom
// filter front-ends the exact map so the common miss path stays cheap.
type ContentDeduplicator struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	exact  map[string]string // content hash -> first file seen
	count  int
}

// NewContentDeduplicator creates a deduplicator sized for the expected
// file count.
func NewContentDeduplicator(estimatedFiles int) *ContentDeduplicator {
	if estimatedFiles < 1000 {
		estimatedFiles = 1000
	}
	return &ContentDeduplicator{
		filter: bloom.NewWithEstimates(uint(estimatedFiles), 0.001),
		exact:  make(map[string]string),
	}
}

// HashContent returns the content hash used for deduplication.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Check records the file's content and reports whether identical
// content was already seen, returning the first path that carried it.
func (d *ContentDeduplicator) Check(path string, content []byte) (dup bool, firstSeen string) {
	h := HashContent(content)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(h) {
		if first, ok := d.exact[h]; ok {
			return true, first
		}
	}

	d.filter.AddString(h)
	d.exact[h] = path
	d.count++
	return false, ""
}

// Count returns the number of unique contents seen.
func (d *ContentDeduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Reset clears all recorded state.
func (d *ContentDeduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter.ClearAll()
	d.exact = make(map[string]string)
	d.count = 0
}
