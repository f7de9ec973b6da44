package store

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

const defaultRingSize = 1000

// BackupEntry is one saved record held in the in-memory backup ring.
type BackupEntry struct {
	Kind    string    `json:"kind"`
	SavedAt time.Time `json:"saved_at"`
	Record  any       `json:"record"`
}

// BackupRing holds the most recent saved records in memory so a scan's
// output survives a remote store outage. When full, the oldest entry is
// evicted.
type BackupRing struct {
	mu      sync.Mutex
	max     int
	entries []BackupEntry
}

// NewBackupRing creates a ring holding up to max entries.
func NewBackupRing(max int) *BackupRing {
	if max <= 0 {
		max = defaultRingSize
	}
	return &BackupRing{max: max}
}

// Append adds an entry, evicting the oldest if the ring is full.
func (r *BackupRing) Append(e BackupEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.max {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, e)
}

// Len returns the number of entries currently held.
func (r *BackupRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns a copy of the current contents, oldest first.
func (r *BackupRing) Entries() []BackupEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BackupEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// WriteFile overwrites path with a JSON snapshot of the ring.
func (r *BackupRing) WriteFile(path string) error {
	data, err := json.MarshalIndent(r.Entries(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
