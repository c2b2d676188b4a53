// Package history persists finished transfers to a bounded JSON file and
// exposes a UI-side view of it.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// MaxRecords bounds the history file. When full, the oldest records fall
// off the end.
const MaxRecords = 100

// Record is one finished transfer as written to history.json.
type Record struct {
	TransferID   string             `json:"transfer_id"`
	Direction    transfer.Direction `json:"direction"`
	PeerAddress  string             `json:"peer_address"`
	PeerHostname string             `json:"peer_hostname,omitempty"`
	Files        []string           `json:"files"`
	TotalBytes   int64              `json:"total_bytes"`
	Status       transfer.Status    `json:"status"`
	Error        string             `json:"error,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// FromTransfer builds the history record for a finished transfer.
func FromTransfer(t transfer.Transfer) Record {
	rec := Record{
		TransferID:   t.ID,
		Direction:    t.Direction,
		PeerAddress:  t.PeerAddress,
		PeerHostname: t.PeerHostname,
		TotalBytes:   t.TotalBytes,
		Status:       t.Status,
		Error:        t.Error,
		Timestamp:    time.Now(),
	}
	if t.CompletedAt != nil {
		rec.Timestamp = *t.CompletedAt
	}
	for _, f := range t.Files {
		rec.Files = append(rec.Files, f.Name)
	}
	return rec
}

// FileStore reads and writes the history file. Safe for concurrent use:
// the engine appends while the UI reads.
type FileStore struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

// NewFileStore opens a store over path. The file is created on first
// append.
func NewFileStore(path string, log *logging.Logger) *FileStore {
	if log == nil {
		log = logging.Nop()
	}
	return &FileStore{path: path, log: log}
}

// Append prepends rec, truncates to MaxRecords and rewrites the file.
func (s *FileStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		// A corrupt history file should not block new records.
		s.log.Warn().Err(err).Str("path", s.path).Msg("history unreadable, starting fresh")
		records = nil
	}
	records = append([]Record{rec}, records...)
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	return s.save(records)
}

// List returns all records, newest first.
func (s *FileStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear empties the history file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]Record{})
}

func (s *FileStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return records, nil
}

func (s *FileStore) save(records []Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}
