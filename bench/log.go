package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ResultLog appends results to a JSON array on disk. Existing entries in
// the file are kept; every Append rewrites the whole file.
type ResultLog struct {
	mu      sync.Mutex
	path    string
	results []Result
}

// OpenResultLog loads the results already stored at path, if any.
func OpenResultLog(path string) (*ResultLog, error) {
	l := &ResultLog{path: path}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("read result log: %w", err)
	case len(data) == 0:
		return l, nil
	}
	if err := json.Unmarshal(data, &l.results); err != nil {
		return nil, fmt.Errorf("parse result log %s: %w", path, err)
	}
	return l, nil
}

// Append records r and flushes the log to disk.
func (l *ResultLog) Append(r Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
	return l.flush()
}

// Results returns a copy of the logged results.
func (l *ResultLog) Results() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Result(nil), l.results...)
}

func (l *ResultLog) flush() error {
	data, err := json.MarshalIndent(l.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return os.WriteFile(l.path, data, 0o644)
}
