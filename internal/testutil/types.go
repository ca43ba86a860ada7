package testutil

import (
	"sync"
	"time"
)

// ExecutionRecord holds the start and end times of one call.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two records ran at the same time.
func (r ExecutionRecord) Overlaps(o ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Recorder collects ExecutionRecords by key from concurrent callers.
type Recorder struct {
	mu      sync.Mutex
	records map[string]ExecutionRecord
	order   []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{records: make(map[string]ExecutionRecord)}
}

// Track runs fn and records how long it took under key.
func (r *Recorder) Track(key string, fn func()) {
	start := time.Now()
	fn()
	end := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = ExecutionRecord{Start: start, End: end}
	r.order = append(r.order, key)
}

// Get returns the record for key.
func (r *Recorder) Get(key string) (ExecutionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	return rec, ok
}

// Completed returns keys in the order their calls finished.
func (r *Recorder) Completed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}
