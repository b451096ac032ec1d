// Package jsonfile provides JSON-document-backed stores. The files are
// pretty-printed with sorted keys so successive runs stay diffable by
// hand, and every save is an atomic replace (temp file plus rename) so
// an interrupted run can never leave a truncated document behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/staffwatch/staffwatch/internal/roster"
)

type snapshotDocument struct {
	Staff roster.Snapshot `json:"staff"`
}

type messageRefDocument struct {
	MessageID json.RawMessage `json:"message_id"`
}

// SnapshotStore persists the roster baseline as a single JSON file.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a snapshot store at the provided path.
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	return &SnapshotStore{path: filepath.Clean(path)}, nil
}

// Load returns the persisted baseline. A missing or malformed file is
// the first-run default: an empty snapshot and no error.
func (s *SnapshotStore) Load(ctx context.Context) (roster.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return roster.Snapshot{}, nil
	}
	var doc snapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return roster.Snapshot{}, nil
	}
	if doc.Staff == nil {
		return roster.Snapshot{}, nil
	}
	return doc.Staff, nil
}

// Save replaces the baseline atomically. encoding/json marshals map
// keys in sorted order, which keeps the document stable across runs.
func (s *SnapshotStore) Save(ctx context.Context, snapshot roster.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = roster.Snapshot{}
	}
	raw, err := json.MarshalIndent(snapshotDocument{Staff: snapshot}, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeAtomic(s.path, raw)
}

// MessageRefStore persists the display message identifier as a single
// JSON file. Both string and number encodings of the identifier are
// accepted on load for compatibility with hand-edited files.
type MessageRefStore struct {
	path string
}

// NewMessageRefStore creates a message reference store at the provided path.
func NewMessageRefStore(path string) (*MessageRefStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("message id path is required")
	}
	return &MessageRefStore{path: filepath.Clean(path)}, nil
}

// Load returns the persisted message identifier, or the empty string
// when the file is missing, malformed, or holds no usable identifier.
func (s *MessageRefStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", nil
	}
	var doc messageRefDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil
	}
	return decodeMessageID(doc.MessageID), nil
}

// Save replaces the persisted message identifier atomically.
func (s *MessageRefStore) Save(ctx context.Context, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("message id is required")
	}
	encoded, err := json.Marshal(messageID)
	if err != nil {
		return fmt.Errorf("encode message id: %w", err)
	}
	raw, err := json.MarshalIndent(messageRefDocument{MessageID: encoded}, "", "    ")
	if err != nil {
		return fmt.Errorf("encode message id document: %w", err)
	}
	return writeAtomic(s.path, raw)
}

func decodeMessageID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if isDigits(asString) {
			return asString
		}
		return ""
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil && isDigits(asNumber.String()) {
		return asNumber.String()
	}
	return ""
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeAtomic(path string, raw []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
