package transfer

import (
	"testing"
	"time"
)

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusActive, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if tt.status.IsTerminal() != tt.terminal {
			t.Errorf("Status %v: expected terminal=%v, got %v", tt.status, tt.terminal, tt.status.IsTerminal())
		}
	}
}

func TestStatusForwardOnly(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusFailed, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusPending, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCancelled, StatusActive, false},
		{StatusFailed, StatusPending, false},
		{StatusCompleted, StatusCompleted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%v -> %v: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestTransferClone(t *testing.T) {
	done := time.Now()
	orig := Transfer{
		ID:          "t1",
		Direction:   DirectionReceive,
		PeerAddress: "192.168.1.5",
		Files:       []FileEntry{{Name: "a.txt", Size: 10}},
		TotalBytes:  10,
		Status:      StatusCompleted,
		CompletedAt: &done,
	}

	cp := orig.Clone()
	cp.Files[0].Name = "modified"
	*cp.CompletedAt = done.Add(time.Hour)

	if orig.Files[0].Name != "a.txt" {
		t.Error("Clone should not share the files slice")
	}
	if !orig.CompletedAt.Equal(done) {
		t.Error("Clone should not share the CompletedAt pointer")
	}
}

func TestProgressFraction(t *testing.T) {
	p := Progress{BytesTransferred: 50, TotalBytes: 200}
	if p.Fraction() != 0.25 {
		t.Errorf("Expected 0.25, got %f", p.Fraction())
	}

	p = Progress{BytesTransferred: 10, TotalBytes: 0}
	if p.Fraction() != 0 {
		t.Errorf("Zero total should yield 0, got %f", p.Fraction())
	}

	p = Progress{BytesTransferred: 300, TotalBytes: 200}
	if p.Fraction() != 1 {
		t.Errorf("Overshoot should clamp to 1, got %f", p.Fraction())
	}
}
