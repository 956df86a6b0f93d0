package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// QueryLog is an append-only text sink for raw user queries.
// Line format: [YYYY-MM-DD HH:MM:SS] User: <raw text>
// The content is advisory; a mutex keeps concurrent sessions from
// interleaving lines.
type QueryLog struct {
	mu   sync.Mutex
	path string
}

// NewQueryLog creates a query log writing to user_queries.log under dataDir.
func NewQueryLog(dataDir string) *QueryLog {
	return &QueryLog{path: filepath.Join(dataDir, "user_queries.log")}
}

// Path returns the log file location.
func (l *QueryLog) Path() string {
	return l.path
}

// Append writes one timestamped query line.
func (l *QueryLog) Append(userText string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "open query log %s", l.path)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] User: %s\n", time.Now().Format("2006-01-02 15:04:05"), userText)
	if _, err := f.WriteString(line); err != nil {
		return errors.Wrap(err, "append query log")
	}
	return nil
}
