// Package detect implements the versioning, authentication, and RESTful
// convention signal detectors. Each detector is an independent pass over
// the extracted endpoint set and raw file text, producing partial
// evidence plus issues; none mutates shared state.
package detect

// EvidenceBuffer is a capped ordered buffer for representative evidence.
// Insertion order is preserved; entries past the cap are dropped, and
// duplicates are ignored.
type EvidenceBuffer struct {
	cap     int
	entries []string
	seen    map[string]bool
}

// DefaultEvidenceCap bounds example lists across all detectors.
const DefaultEvidenceCap = 5

// NewEvidenceBuffer creates a buffer with the given cap (<=0 uses the
// default).
func NewEvidenceBuffer(capacity int) *EvidenceBuffer {
	if capacity <= 0 {
		capacity = DefaultEvidenceCap
	}
	return &EvidenceBuffer{
		cap:  capacity,
		seen: make(map[string]bool),
	}
}

// Add records an evidence entry if the buffer has room.
func (b *EvidenceBuffer) Add(entry string) {
	if len(b.entries) >= b.cap || b.seen[entry] {
		return
	}
	b.seen[entry] = true
	b.entries = append(b.entries, entry)
}

// Entries returns the recorded evidence in insertion order.
func (b *EvidenceBuffer) Entries() []string {
	return b.entries
}

// Len returns the number of recorded entries.
func (b *EvidenceBuffer) Len() int {
	return len(b.entries)
}
