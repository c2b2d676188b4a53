package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "history.json"), logging.Nop())
}

func record(id string) Record {
	return Record{
		TransferID:  id,
		Direction:   transfer.DirectionReceive,
		PeerAddress: "192.168.1.50",
		Files:       []string{"report.pdf"},
		TotalBytes:  4096,
		Status:      transfer.StatusCompleted,
		Timestamp:   time.Now(),
	}
}

func TestAppendAndList(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Append(record(fmt.Sprintf("t%d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	records, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Newest first.
	if records[0].TransferID != "t2" || records[2].TransferID != "t0" {
		t.Fatalf("order = [%s %s %s], want newest first", records[0].TransferID, records[1].TransferID, records[2].TransferID)
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	s := testStore(t)

	for i := 0; i < MaxRecords+10; i++ {
		if err := s.Append(record(fmt.Sprintf("t%d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	records, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != MaxRecords {
		t.Fatalf("got %d records, want cap of %d", len(records), MaxRecords)
	}
	if records[0].TransferID != fmt.Sprintf("t%d", MaxRecords+9) {
		t.Fatalf("newest = %s, want the last appended", records[0].TransferID)
	}
	if records[len(records)-1].TransferID != "t10" {
		t.Fatalf("oldest = %s, want t10 after eviction", records[len(records)-1].TransferID)
	}
}

func TestListMissingFileIsEmpty(t *testing.T) {
	s := testStore(t)
	records, err := s.List()
	if err != nil {
		t.Fatalf("List on missing file: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records from missing file", len(records))
	}
}

func TestClear(t *testing.T) {
	s := testStore(t)
	if err := s.Append(record("t1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	records, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records after clear", len(records))
	}
}

func TestFromTransferUsesCompletionTime(t *testing.T) {
	done := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	tr := transfer.Transfer{
		ID:          "t1",
		Direction:   transfer.DirectionSend,
		PeerAddress: "10.0.0.7",
		Files:       []transfer.FileEntry{{Name: "a.txt"}, {Name: "b.txt"}},
		TotalBytes:  123,
		Status:      transfer.StatusFailed,
		Error:       "connection reset",
		CompletedAt: &done,
	}
	rec := FromTransfer(tr)
	if !rec.Timestamp.Equal(done) {
		t.Fatalf("timestamp = %v, want completion time", rec.Timestamp)
	}
	if len(rec.Files) != 2 || rec.Files[0] != "a.txt" {
		t.Fatalf("files = %v", rec.Files)
	}
	if rec.Status != transfer.StatusFailed || rec.Error != "connection reset" {
		t.Fatalf("status carried badly: %+v", rec)
	}
}

func TestLogRefreshLoadsRecords(t *testing.T) {
	s := testStore(t)
	if err := s.Append(record("t1")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	loop := uiloop.NewQueue()
	defer loop.Close()
	l := NewLog(s, loop, logging.Nop())

	changed := make(chan struct{}, 1)
	l.SetOnChange(func() { changed <- struct{}{} })
	l.Refresh()

	deadline := time.After(2 * time.Second)
	for {
		loop.Drain()
		select {
		case <-changed:
			if len(l.Records()) != 1 || l.Records()[0].TransferID != "t1" {
				t.Fatalf("records = %+v", l.Records())
			}
			return
		case <-deadline:
			t.Fatal("refresh never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
