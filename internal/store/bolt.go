// Package store persists analysis reports so previous runs can be
// listed and compared from the CLI.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/aaronchenweb/apiscan/internal/report"
)

var bucketReports = []byte("reports")

// ErrNotFound is returned when a requested report key does not exist.
var ErrNotFound = errors.New("report not found")

// Entry is a stored report plus the key it was saved under.
type Entry struct {
	Key    string                 `json:"key"`
	Report *report.AnalysisReport `json:"report"`
}

// Summary is the listing view of a stored report.
type Summary struct {
	Key          string    `json:"key"`
	Root         string    `json:"root"`
	Framework    string    `json:"framework"`
	GeneratedAt  time.Time `json:"generated_at"`
	Endpoints    int       `json:"endpoints"`
	Issues       int       `json:"issues"`
	RESTfulScore int       `json:"restful_score"`
	AuthGrade    string    `json:"auth_grade"`
}

// HistoryStore is a disk-backed report archive using BoltDB.
type HistoryStore struct {
	mu     sync.RWMutex
	db     *bolt.DB
	closed bool
	dbPath string
}

// Open opens (or creates) the history database at dbPath.
func Open(dbPath string) (*HistoryStore, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReports)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &HistoryStore{db: db, dbPath: dbPath}, nil
}

// Save stores a report and returns the key it was saved under.
// Keys are the report generation time in RFC3339, which keeps the
// bucket naturally ordered oldest to newest.
func (hs *HistoryStore) Save(rep *report.AnalysisReport) (string, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.closed {
		return "", errors.New("store is closed")
	}
	if rep == nil {
		return "", errors.New("nil report")
	}

	key := rep.GeneratedAt.UTC().Format(time.RFC3339)
	data, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	err = hs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return errors.New("reports bucket not found")
		}
		// Suffix duplicate timestamps so two runs in the same
		// second do not clobber each other.
		k := key
		for i := 1; b.Get([]byte(k)) != nil; i++ {
			k = fmt.Sprintf("%s-%d", key, i)
		}
		key = k
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get loads a single report by key.
func (hs *HistoryStore) Get(key string) (*report.AnalysisReport, error) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	if hs.closed {
		return nil, errors.New("store is closed")
	}

	var rep *report.AnalysisReport
	err := hs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		rep = &report.AnalysisReport{}
		return json.Unmarshal(data, rep)
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Latest returns the most recently saved report, or ErrNotFound when
// the store is empty.
func (hs *HistoryStore) Latest() (*Entry, error) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	if hs.closed {
		return nil, errors.New("store is closed")
	}

	var entry *Entry
	err := hs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return ErrNotFound
		}
		k, v := b.Cursor().Last()
		if k == nil {
			return ErrNotFound
		}
		rep := &report.AnalysisReport{}
		if err := json.Unmarshal(v, rep); err != nil {
			return err
		}
		entry = &Entry{Key: string(k), Report: rep}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns summaries for stored reports, newest first. A limit of
// zero or less returns everything.
func (hs *HistoryStore) List(limit int) ([]Summary, error) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	if hs.closed {
		return nil, errors.New("store is closed")
	}

	var summaries []Summary
	err := hs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(summaries) >= limit {
				break
			}
			var rep report.AnalysisReport
			if err := json.Unmarshal(v, &rep); err != nil {
				continue // Skip corrupt entries
			}
			summaries = append(summaries, Summary{
				Key:          string(k),
				Root:         rep.Root,
				Framework:    rep.Framework,
				GeneratedAt:  rep.GeneratedAt,
				Endpoints:    len(rep.Endpoints),
				Issues:       len(rep.Issues),
				RESTfulScore: rep.Scores.RESTful,
				AuthGrade:    rep.Scores.AuthGrade,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// Delete removes a stored report by key.
func (hs *HistoryStore) Delete(key string) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.closed {
		return errors.New("store is closed")
	}

	return hs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return nil
		}
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(key))
	})
}

// Count returns the number of stored reports.
func (hs *HistoryStore) Count() (int, error) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	if hs.closed {
		return 0, errors.New("store is closed")
	}

	count := 0
	err := hs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the underlying database.
func (hs *HistoryStore) Close() error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.closed {
		return nil
	}
	hs.closed = true
	return hs.db.Close()
}
