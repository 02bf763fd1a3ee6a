package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/deepgram/assistkit/pkg/logger"
)

// Writer dumps JSON debug snapshots of remote resources to a local directory.
// The snapshots let an operator find and delete resources by hand after an
// abnormal exit. A nil *Writer discards everything.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "tmp"
	}
	return &Writer{dir: dir}
}

// Path returns the file a snapshot with the given name is written to. The
// name is reduced to a single file name inside the directory.
func (w *Writer) Path(name string) string {
	if w == nil {
		return ""
	}
	return filepath.Join(w.dir, fileName(name)+".json")
}

// fileName keeps letters, digits, '-', '_' and single dots; anything else,
// path separators included, becomes '_'.
func fileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
	for strings.Contains(safe, "..") {
		safe = strings.ReplaceAll(safe, "..", "_")
	}
	if safe == "" || safe == "." {
		safe = "_"
	}
	return safe
}

// Save writes v as JSON. Failures are logged and otherwise ignored.
func (w *Writer) Save(name string, v interface{}) {
	if w == nil {
		return
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		logger.Warn(logger.SNAPSHOT, "Failed to create snapshot directory %s: %v", w.dir, err)
		return
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Warn(logger.SNAPSHOT, "Failed to encode snapshot %s: %v", name, err)
		return
	}

	if err := os.WriteFile(w.Path(name), data, 0o644); err != nil {
		logger.Warn(logger.SNAPSHOT, "Failed to write snapshot %s: %v", w.Path(name), err)
		return
	}

	logger.Debug(logger.SNAPSHOT, "Wrote snapshot %s", w.Path(name))
}

// Remove deletes a snapshot if it exists
func (w *Writer) Remove(name string) {
	if w == nil {
		return
	}

	err := os.Remove(w.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn(logger.SNAPSHOT, "Failed to remove snapshot %s: %v", w.Path(name), err)
	}
}
