package journal

import (
	"path/filepath"
	"testing"
	"time"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func tempRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := OpenAt(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestDefaultPathOverride(t *testing.T) {
	t.Cleanup(ResetPath)

	path := filepath.Join(t.TempDir(), "journal.db")
	SetPath(path)

	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath error: %v", err)
	}
	if got != path {
		t.Fatalf("DefaultPath = %q, want %q", got, path)
	}
}

func TestOpenAt_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	r, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt error: %v", err)
	}
	_ = r.Close()
}

func TestSave_AssignsIDAndTimestamp(t *testing.T) {
	r := tempRepo(t)

	entry := &Entry{Command: "provctl provision servers", Outcome: OutcomeSuccess, DurationMs: 12}
	if err := r.Save(entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	r := tempRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		entry := &Entry{
			Command:   "provctl cleanup",
			Outcome:   OutcomeSuccess,
			Resources: "server=1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := r.Save(entry); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := r.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Timestamp.Equal(base.Add(2 * time.Second)) {
		t.Errorf("first entry timestamp = %v, want newest", entries[0].Timestamp)
	}
	if entries[0].Resources != "server=1" {
		t.Errorf("Resources = %q", entries[0].Resources)
	}
}

func TestListByCommand(t *testing.T) {
	r := tempRepo(t)

	for _, entry := range []*Entry{
		{Command: "provctl provision stack", Outcome: OutcomeSuccess},
		{Command: "provctl cleanup", Outcome: OutcomeSuccess},
		{Command: "provctl provision stack", Outcome: OutcomeError, Detail: "server stage: boom"},
	} {
		if err := r.Save(entry); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := r.ListByCommand("provctl provision stack", 10)
	if err != nil {
		t.Fatalf("ListByCommand failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	for _, e := range got {
		if e.Command != "provctl provision stack" {
			t.Errorf("unexpected command %q", e.Command)
		}
	}
}

func TestPrune(t *testing.T) {
	r := tempRepo(t)

	old := &Entry{Command: "provctl cleanup", Outcome: OutcomeSuccess, Timestamp: time.Now().UTC().Add(-48 * time.Hour)}
	recent := &Entry{Command: "provctl cleanup", Outcome: OutcomeSuccess}
	for _, e := range []*Entry{old, recent} {
		if err := r.Save(e); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	removed, err := r.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	left, err := r.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(left) != 1 || left[0].ID != recent.ID {
		t.Errorf("remaining entries = %+v", left)
	}
}

func TestSummarizeHandles(t *testing.T) {
	handles := []domain.Handle{
		{Kind: domain.KindServer},
		{Kind: domain.KindServer},
		{Kind: domain.KindLoadBalancer},
		{Kind: domain.KindNetwork},
	}
	if got, want := SummarizeHandles(handles), "load_balancer=1 network=1 server=2"; got != want {
		t.Errorf("SummarizeHandles() = %q, want %q", got, want)
	}
	if got := SummarizeHandles(nil); got != "" {
		t.Errorf("SummarizeHandles(nil) = %q, want empty", got)
	}
}

func TestSanitizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "separate value",
			in:   []string{"login", "hetzner", "--token", "secret"},
			want: []string{"login", "hetzner", "--token", "<redacted>"},
		},
		{
			name: "inline value",
			in:   []string{"--password=hunter2", "--name", "db"},
			want: []string{"--password=<redacted>", "--name", "db"},
		},
		{
			name: "nothing sensitive",
			in:   []string{"--prefix", "demo", "--dry-run"},
			want: []string{"--prefix", "demo", "--dry-run"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SanitizeArgs(tt.in)); diff != "" {
				t.Errorf("SanitizeArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
