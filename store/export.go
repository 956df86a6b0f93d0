package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Exporter serializes conversations to timestamped plain-text files on disk.
type Exporter struct {
	dataDir string
}

// NewExporter creates an exporter writing under dataDir.
func NewExporter(dataDir string) *Exporter {
	return &Exporter{dataDir: dataDir}
}

// Export writes every turn as "User: <u>\nBot: <b>\n\n" in conversation
// order to chat_history_<YYYYMMDD_HHMMSS>.txt and returns the file path.
func (e *Exporter) Export(conversation *Conversation) (string, error) {
	filename := fmt.Sprintf("chat_history_%s.txt", time.Now().Format("20060102_150405"))
	path := filepath.Join(e.dataDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create export file %s", path)
	}
	defer f.Close()

	for _, turn := range conversation.Turns() {
		if _, err := fmt.Fprintf(f, "User: %s\nBot: %s\n\n", turn.User, turn.Assistant); err != nil {
			return "", errors.Wrap(err, "write export file")
		}
	}
	return path, nil
}
