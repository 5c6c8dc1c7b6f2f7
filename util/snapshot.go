package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// SnapshotTimeFormat - Timestamp format used in snapshot file names (no colons, for portability).
const SnapshotTimeFormat = "2006-01-02T15-04-05"

// SnapshotWriter - Persists a JSON-serializable payload under some name hint.
type SnapshotWriter interface {
	WriteSnapshot(pathHint string, payload interface{}) (string, error)
}

// JSONSnapshotWriter - Writes indented JSON files named "<hint>-<timestamp>.json" into a directory.
type JSONSnapshotWriter struct {
	Directory string
	Timestamp time.Time
}

// WriteSnapshot - Write the payload, returning the path of the written file.
func (writer JSONSnapshotWriter) WriteSnapshot(pathHint string, payload interface{}) (string, error) {
	if err := os.MkdirAll(writer.Directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize snapshot %v: %w", pathHint, err)
	}

	fileName := fmt.Sprintf("%v-%v.json", sanitizePathHint(pathHint), writer.Timestamp.Format(SnapshotTimeFormat))
	path := filepath.Join(writer.Directory, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %v: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path":  path,
		"bytes": len(data),
	}).Info("Wrote snapshot")
	return path, nil
}

// IPv6 addresses and hostnames may contain characters that are awkward in file names.
func sanitizePathHint(pathHint string) string {
	replacer := strings.NewReplacer(":", "-", "/", "_", "\\", "_", " ", "_")
	return replacer.Replace(pathHint)
}
