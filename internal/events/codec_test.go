package events

import (
	"testing"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

func TestMarshalRoundTrip(t *testing.T) {
	ev := TransferFailed{ID: "t9", Error: "connection reset"}

	data, err := Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	failed, ok := decoded.(TransferFailed)
	if !ok {
		t.Fatalf("Expected TransferFailed, got %T", decoded)
	}
	if failed.ID != "t9" || failed.Error != "connection reset" {
		t.Errorf("Round trip mangled payload: %+v", failed)
	}
}

func TestUnmarshalSnakeCase(t *testing.T) {
	data := []byte(`{"transfer_progress": {"progress": {
		"transfer_id": "t1",
		"current_file": "a.txt",
		"current_file_index": 0,
		"total_files": 1,
		"bytes_transferred": 512,
		"total_bytes": 1024,
		"speed_bps": 2048.5
	}}}`)

	ev, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	progress, ok := ev.(TransferProgress)
	if !ok {
		t.Fatalf("Expected TransferProgress, got %T", ev)
	}
	if progress.Progress.BytesTransferred != 512 {
		t.Errorf("Expected 512 bytes, got %d", progress.Progress.BytesTransferred)
	}
	if progress.Progress.SpeedBps != 2048.5 {
		t.Errorf("Expected speed 2048.5, got %f", progress.Progress.SpeedBps)
	}
}

func TestUnmarshalCamelCase(t *testing.T) {
	// Older payload producers emit camelCase tags and fields.
	data := []byte(`{"transferProgress": {"progress": {
		"transferId": "t1",
		"currentFile": "a.txt",
		"currentFileIndex": 0,
		"totalFiles": 1,
		"bytesTransferred": 512,
		"totalBytes": 1024,
		"speedBps": 2048.5
	}}}`)

	ev, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	progress, ok := ev.(TransferProgress)
	if !ok {
		t.Fatalf("Expected TransferProgress, got %T", ev)
	}
	if progress.Progress.TransferID != "t1" {
		t.Errorf("Expected transfer id t1, got %q", progress.Progress.TransferID)
	}
	if progress.Progress.TotalBytes != 1024 {
		t.Errorf("Expected 1024 total bytes, got %d", progress.Progress.TotalBytes)
	}
}

func TestUnmarshalTransferRequest(t *testing.T) {
	data := []byte(`{"transfer_request": {"transfer": {
		"transfer_id": "t2",
		"direction": "receive",
		"peer_address": "192.168.1.7",
		"files": [{"name": "photo.jpg", "size": 4096}],
		"total_bytes": 4096,
		"status": "pending",
		"created_at": "2026-01-05T10:00:00Z"
	}}}`)

	ev, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	req, ok := ev.(TransferRequest)
	if !ok {
		t.Fatalf("Expected TransferRequest, got %T", ev)
	}
	if req.Transfer.ID != "t2" {
		t.Errorf("Expected id t2, got %q", req.Transfer.ID)
	}
	if len(req.Transfer.Files) != 1 || req.Transfer.Files[0].Name != "photo.jpg" {
		t.Errorf("Files decoded wrong: %+v", req.Transfer.Files)
	}
	if req.Transfer.Status != transfer.StatusPending {
		t.Errorf("Expected pending status, got %v", req.Transfer.Status)
	}
}

func TestUnmarshalPortChanged(t *testing.T) {
	ev, err := Unmarshal([]byte(`{"port_changed": {"old_port": 53317, "new_port": 53400}}`))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	pc, ok := ev.(PortChanged)
	if !ok {
		t.Fatalf("Expected PortChanged, got %T", ev)
	}
	if pc.OldPort != 53317 || pc.NewPort != 53400 {
		t.Errorf("Wrong ports: %+v", pc)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{}`,
		`{"transfer_complete": {}, "server_stopped": {}}`,
		`{"transfer_complete": {}}`,
		`{"bogus_event": {}}`,
		`{"transfer_progress": {"progress": {"transfer_id": ""}}}`,
	}

	for _, tc := range cases {
		if _, err := Unmarshal([]byte(tc)); err == nil {
			t.Errorf("Expected error for %s", tc)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"transfer_id", "transfer_id"},
		{"transferId", "transfer_id"},
		{"TransferId", "transfer_id"},
		{"bytesTransferred", "bytes_transferred"},
		{"speedBps", "speed_bps"},
		{"port", "port"},
	}
	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.out {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}
