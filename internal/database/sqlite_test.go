package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"notty-go/internal/notty"
)

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestHistory(t *testing.T) *SQLiteHistory {
	t.Helper()
	h, err := NewSQLiteHistory(":memory:", &seqIDs{})
	if err != nil {
		t.Fatalf("NewSQLiteHistory() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestSQLiteHistory_StartFinish(t *testing.T) {
	h := newTestHistory(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	id, err := h.StartOperation("/work", "save", "comment=first", start)
	if err != nil {
		t.Fatalf("StartOperation() error = %v", err)
	}
	if id != "id-1" {
		t.Errorf("StartOperation() id = %q, want %q", id, "id-1")
	}

	ops, err := h.RecentOperations("/work", 10)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("RecentOperations() returned %d operations, want 1", len(ops))
	}
	if ops[0].Status != notty.OperationRunning {
		t.Errorf("Status = %q, want %q", ops[0].Status, notty.OperationRunning)
	}
	if !ops[0].FinishedAt.IsZero() {
		t.Errorf("FinishedAt = %v, want zero", ops[0].FinishedAt)
	}

	finish := start.Add(2 * time.Second)
	if err := h.FinishOperation(id, notty.OperationSuccess, finish); err != nil {
		t.Fatalf("FinishOperation() error = %v", err)
	}

	ops, err = h.RecentOperations("/work", 10)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	op := ops[0]
	if op.Name != "save" || op.Parameters != "comment=first" || op.Repository != "/work" {
		t.Errorf("operation = %+v", op)
	}
	if op.Status != notty.OperationSuccess {
		t.Errorf("Status = %q, want %q", op.Status, notty.OperationSuccess)
	}
	if !op.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", op.StartedAt, start)
	}
	if !op.FinishedAt.Equal(finish) {
		t.Errorf("FinishedAt = %v, want %v", op.FinishedAt, finish)
	}
}

func TestSQLiteHistory_FinishUnknown(t *testing.T) {
	h := newTestHistory(t)
	err := h.FinishOperation("missing", notty.OperationError, time.Now())
	if !errors.Is(err, ErrOperationNotFound) {
		t.Errorf("FinishOperation() error = %v, want ErrOperationNotFound", err)
	}
}

func TestSQLiteHistory_RecentOperations(t *testing.T) {
	h := newTestHistory(t)
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	for _, rec := range []struct{ repo, op string }{
		{"/a", "init"},
		{"/a", "save"},
		{"/b", "init"},
		{"/a", "forget"},
	} {
		if _, err := h.StartOperation(rec.repo, rec.op, "", now); err != nil {
			t.Fatalf("StartOperation() error = %v", err)
		}
		now = now.Add(time.Minute)
	}

	tests := []struct {
		name  string
		repo  string
		limit int
		want  []string
	}{
		{name: "newest first for one repository", repo: "/a", limit: 10, want: []string{"forget", "save", "init"}},
		{name: "limit applied", repo: "/a", limit: 2, want: []string{"forget", "save"}},
		{name: "all repositories", repo: "", limit: 10, want: []string{"forget", "init", "save", "init"}},
		{name: "unknown repository", repo: "/c", limit: 10, want: nil},
		{name: "zero limit", repo: "/a", limit: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := h.RecentOperations(tt.repo, tt.limit)
			if err != nil {
				t.Fatalf("RecentOperations() error = %v", err)
			}
			if len(ops) != len(tt.want) {
				t.Fatalf("RecentOperations() returned %d operations, want %d", len(ops), len(tt.want))
			}
			for i, op := range ops {
				if op.Name != tt.want[i] {
					t.Errorf("ops[%d].Name = %q, want %q", i, op.Name, tt.want[i])
				}
			}
		})
	}
}

func TestNewSQLiteHistory_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	h, err := NewSQLiteHistory(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteHistory() error = %v", err)
	}
	if _, err := h.StartOperation("/w", "init", "", time.Now()); err != nil {
		t.Fatalf("StartOperation() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	h, err = NewSQLiteHistory(path, nil)
	if err != nil {
		t.Fatalf("reopen NewSQLiteHistory() error = %v", err)
	}
	defer h.Close()

	ops, err := h.RecentOperations("/w", 5)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("RecentOperations() after reopen returned %d, want 1", len(ops))
	}
}
