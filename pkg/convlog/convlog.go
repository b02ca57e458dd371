// Package convlog persists conversation turns to a JSON file so a
// session survives restarts and can be inspected after the fact.
package convlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one user/assistant exchange.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	AI        string    `json:"ai"`
}

// Log is a file-backed conversation log. An empty path disables
// persistence; Append still records entries in memory.
type Log struct {
	path string

	mu      sync.Mutex
	entries []Entry
}

// Open loads the log at path. A missing file starts an empty log.
func Open(path string) (*Log, error) {
	l := &Log{path: path}

	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read conversation log: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &l.entries); err != nil {
			return nil, fmt.Errorf("parse conversation log: %w", err)
		}
	}

	return l, nil
}

// Append records one exchange and persists the log.
func (l *Log) Append(user, ai string) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      user,
		AI:        ai,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if err := l.save(); err != nil {
		return entry, err
	}
	return entry, nil
}

// save writes the full log. Callers hold l.mu.
func (l *Log) save() error {
	if l.path == "" {
		return nil
	}

	dir := filepath.Dir(l.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation log: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write conversation log: %w", err)
	}
	return os.Rename(tmp, l.path)
}

// Recent returns up to n of the newest entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the number of logged exchanges.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
