package converge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/google/go-cmp/cmp"
)

// scriptedRefresher returns a predetermined status sequence per handle ID.
// Once a sequence is exhausted the last status repeats.
type scriptedRefresher struct {
	mu      sync.Mutex
	scripts map[string][]string
	attrs   map[string][]map[string]any
	calls   map[string]int
}

func newScripted(scripts map[string][]string) *scriptedRefresher {
	return &scriptedRefresher{
		scripts: scripts,
		attrs:   map[string][]map[string]any{},
		calls:   map[string]int{},
	}
}

func (s *scriptedRefresher) Refresh(_ context.Context, h domain.Handle) (domain.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.calls[h.ID]
	s.calls[h.ID] = n + 1
	out := h.Clone()
	if seq := s.scripts[h.ID]; len(seq) > 0 {
		out.Status = seq[min(n, len(seq)-1)]
	}
	if seq := s.attrs[h.ID]; len(seq) > 0 {
		out.Attributes = seq[min(n, len(seq)-1)]
	}
	return out, nil
}

func (s *scriptedRefresher) callCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func servers(ids ...string) []domain.Handle {
	out := make([]domain.Handle, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Handle{ID: id, Kind: domain.KindServer, Name: "srv-" + id, Status: domain.StatusBuild})
	}
	return out
}

func TestAwait_AllSucceed(t *testing.T) {
	ref := newScripted(map[string][]string{
		"1": {"BUILD", "ACTIVE"},
		"2": {"BUILD", "BUILD", "ACTIVE"},
		"3": {"ACTIVE"},
	})
	p := New(ref)

	got, err := p.Await(context.Background(), BuildComplete(servers("1", "2", "3"), 0, 10))
	if err != nil {
		t.Fatalf("Await returned error: %v", err)
	}

	var ids, statuses []string
	for _, h := range got {
		ids = append(ids, h.ID)
		statuses = append(statuses, h.Status)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, ids); diff != "" {
		t.Errorf("handle order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ACTIVE", "ACTIVE", "ACTIVE"}, statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	if n := ref.callCount("2"); n != 3 {
		t.Errorf("expected 3 refreshes of handle 2, got %d", n)
	}
}

func TestAwait_FailFastOnFailureState(t *testing.T) {
	ref := newScripted(map[string][]string{
		"1": {"BUILD"},
		"2": {"ERROR"},
	})
	p := New(ref)

	_, err := p.Await(context.Background(), BuildComplete(servers("1", "2"), 0, 50))

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ce.Reason != PartialFailure {
		t.Errorf("Reason = %v, want %v", ce.Reason, PartialFailure)
	}
	if ce.Handle.ID != "2" {
		t.Errorf("offending handle = %q, want %q", ce.Handle.ID, "2")
	}
	if n := ref.callCount("1"); n != 1 {
		t.Errorf("expected sibling to be polled once before failing fast, got %d", n)
	}
	if !IsPartialFailure(err) {
		t.Error("IsPartialFailure returned false")
	}
}

func TestAwait_TimeoutReportsLastSeen(t *testing.T) {
	ref := newScripted(map[string][]string{
		"1": {"ACTIVE"},
		"2": {"BUILD"},
	})
	p := New(ref)

	_, err := p.Await(context.Background(), BuildComplete(servers("1", "2"), 0, 4))

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ce.Reason != Timeout {
		t.Fatalf("Reason = %v, want %v", ce.Reason, Timeout)
	}
	if ce.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", ce.Attempts)
	}
	want := map[string]string{"1": "ACTIVE", "2": "BUILD"}
	got := map[string]string{}
	for _, h := range ce.LastSeen {
		got[h.ID] = h.Status
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LastSeen mismatch (-want +got):\n%s", diff)
	}
	if n := ref.callCount("2"); n != 4 {
		t.Errorf("expected exactly MaxAttempts refreshes, got %d", n)
	}
}

func TestAwait_NeverLeavesPending(t *testing.T) {
	ref := newScripted(map[string][]string{"1": {"BUILD"}})
	p := New(ref)

	_, err := p.Await(context.Background(), BuildComplete(servers("1"), 0, 3))
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestAwait_StructuralPredicate(t *testing.T) {
	ref := newScripted(map[string][]string{"1": {"BUILD"}})
	ref.attrs["1"] = []map[string]any{
		{},
		{},
		{domain.AttrPublicIPv4: "203.0.113.10"},
	}
	p := New(ref)

	got, err := p.Await(context.Background(), AddressesAssigned(servers("1"), 0, 5))
	if err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
	if got[0].Status != domain.StatusBuild {
		t.Errorf("expected status to remain BUILD once addresses were assigned, got %q", got[0].Status)
	}
	if got[0].Attr(domain.AttrPublicIPv4) != "203.0.113.10" {
		t.Errorf("expected address attribute, got %v", got[0].Attributes)
	}
}

func TestAwait_StructuralPredicateStillFailsFast(t *testing.T) {
	ref := newScripted(map[string][]string{"1": {"ERROR"}})
	p := New(ref)

	_, err := p.Await(context.Background(), AddressesAssigned(servers("1"), 0, 5))
	if !IsPartialFailure(err) {
		t.Fatalf("expected partial failure, got %v", err)
	}
}

func TestAwait_PropagatesRefreshError(t *testing.T) {
	want := fmt.Errorf("boom: %w", domain.ErrUnauthorized)
	p := New(RefreshFunc(func(context.Context, domain.Handle) (domain.Handle, error) {
		return domain.Handle{}, want
	}))

	_, err := p.Await(context.Background(), BuildComplete(servers("1"), 0, 5))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected refresh error to propagate, got %v", err)
	}
}

func TestAwait_ProgressEvents(t *testing.T) {
	ref := newScripted(map[string][]string{"1": {"BUILD", "BUILD", "ACTIVE"}})
	p := New(ref)

	var attempts []int
	target := BuildComplete(servers("1"), 0, 10)
	target.Progress = func(ev Event) {
		attempts = append(attempts, ev.Attempt)
		if ev.MaxAttempts != 10 {
			t.Errorf("MaxAttempts = %d, want 10", ev.MaxAttempts)
		}
	}

	if _, err := p.Await(context.Background(), target); err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, attempts); diff != "" {
		t.Errorf("progress attempts mismatch (-want +got):\n%s", diff)
	}
}

func TestAwait_SleepsBetweenAttempts(t *testing.T) {
	ref := newScripted(map[string][]string{"1": {"BUILD", "BUILD", "ACTIVE"}})
	p := New(ref)

	start := time.Now()
	if _, err := p.Await(context.Background(), BuildComplete(servers("1"), 20*time.Millisecond, 5)); err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected two sleeps of 20ms, elapsed %v", elapsed)
	}
}

func TestAwait_ContextCancelled(t *testing.T) {
	ref := newScripted(map[string][]string{"1": {"BUILD"}})
	p := New(ref)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Await(ctx, BuildComplete(servers("1"), time.Hour, 5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAwait_EmptyTarget(t *testing.T) {
	p := New(newScripted(nil))
	got, err := p.Await(context.Background(), BuildComplete(nil, 0, 1))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty success, got %v, %v", got, err)
	}
}

func TestTargetValidate(t *testing.T) {
	tests := []struct {
		name   string
		target Target
	}{
		{"zero attempts", Target{SuccessStates: []string{"ACTIVE"}}},
		{"overlapping states", Target{SuccessStates: []string{"ACTIVE"}, FailureStates: []string{"ACTIVE"}, MaxAttempts: 1}},
		{"no success criterion", Target{MaxAttempts: 1}},
		{"negative interval", Target{SuccessStates: []string{"ACTIVE"}, MaxAttempts: 1, PollInterval: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.target.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
