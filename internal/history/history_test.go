package history

import (
	"testing"
	"time"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test history: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestStartAndGetRun(t *testing.T) {
	h := openTestHistory(t)
	now := time.Now().UTC().Truncate(time.Second)

	run := &Run{ID: "r-001", Root: "/tmp/overlay", Command: "make test", StartedAt: now}
	if err := h.StartRun(run); err != nil {
		t.Fatalf("start run: %v", err)
	}

	got, err := h.GetRun("r-001")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.Root != run.Root || got.Command != run.Command {
		t.Errorf("got = %+v, want root/command %s/%s", got, run.Root, run.Command)
	}
	if got.FinishedAt != nil || got.ExitCode != nil {
		t.Errorf("unfinished run should have nil FinishedAt/ExitCode, got %+v", got)
	}
}

func TestFinishRun(t *testing.T) {
	h := openTestHistory(t)
	now := time.Now().UTC().Truncate(time.Second)

	run := &Run{ID: "r-002", Root: "/tmp/overlay", Command: "go test ./...", StartedAt: now}
	if err := h.StartRun(run); err != nil {
		t.Fatalf("start run: %v", err)
	}
	finishedAt := now.Add(5 * time.Second)
	if err := h.FinishRun("r-002", finishedAt, 0); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := h.GetRun("r-002")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.ExitCode == nil || *got.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", got.ExitCode)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finishedAt) {
		t.Errorf("finished_at = %v, want %v", got.FinishedAt, finishedAt)
	}
}

func TestGetRunNotFound(t *testing.T) {
	h := openTestHistory(t)
	got, err := h.GetRun("does-not-exist")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing run, got %+v", got)
	}
}

func TestListRunsOrdersByStartedAtDesc(t *testing.T) {
	h := openTestHistory(t)
	base := time.Now().UTC().Truncate(time.Second)

	older := &Run{ID: "r-old", Root: "/tmp/a", Command: "old", StartedAt: base}
	newer := &Run{ID: "r-new", Root: "/tmp/b", Command: "new", StartedAt: base.Add(time.Minute)}
	if err := h.StartRun(older); err != nil {
		t.Fatalf("start older: %v", err)
	}
	if err := h.StartRun(newer); err != nil {
		t.Fatalf("start newer: %v", err)
	}

	runs, err := h.ListRuns()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r-new" || runs[1].ID != "r-old" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestRecordAndListCommits(t *testing.T) {
	h := openTestHistory(t)
	now := time.Now().UTC().Truncate(time.Second)

	run := &Run{ID: "r-003", Root: "/tmp/overlay", Command: "build", StartedAt: now}
	if err := h.StartRun(run); err != nil {
		t.Fatalf("start run: %v", err)
	}

	entries := []CommitEntry{
		{HPN: "/etc/hosts", Committed: true},
		{HPN: "/tmp/scratch", Committed: false},
	}
	if err := h.RecordCommits("r-003", entries, now); err != nil {
		t.Fatalf("record commits: %v", err)
	}

	got, err := h.ListCommits("r-003")
	if err != nil {
		t.Fatalf("list commits: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d commits, want 2", len(got))
	}
	if got[0].HPN != "/etc/hosts" || !got[0].Committed {
		t.Errorf("commits[0] = %+v", got[0])
	}
	if got[1].HPN != "/tmp/scratch" || got[1].Committed {
		t.Errorf("commits[1] = %+v", got[1])
	}
}

func TestRecordCommitsUpsertsOnConflict(t *testing.T) {
	h := openTestHistory(t)
	now := time.Now().UTC().Truncate(time.Second)

	run := &Run{ID: "r-004", Root: "/tmp/overlay", Command: "build", StartedAt: now}
	if err := h.StartRun(run); err != nil {
		t.Fatalf("start run: %v", err)
	}

	if err := h.RecordCommits("r-004", []CommitEntry{{HPN: "/etc/hosts", Committed: false}}, now); err != nil {
		t.Fatalf("record commits (first pass): %v", err)
	}
	if err := h.RecordCommits("r-004", []CommitEntry{{HPN: "/etc/hosts", Committed: true}}, now.Add(time.Second)); err != nil {
		t.Fatalf("record commits (second pass): %v", err)
	}

	got, err := h.ListCommits("r-004")
	if err != nil {
		t.Fatalf("list commits: %v", err)
	}
	if len(got) != 1 || !got[0].Committed {
		t.Fatalf("expected one upserted committed entry, got %+v", got)
	}
}
