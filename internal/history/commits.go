package history

import (
	"fmt"
	"time"
)

// CommitEntry is one file's disposition from an interactive commit
// pass: whether its overlay copy was written back to the host tree.
type CommitEntry struct {
	HPN       string
	Committed bool
}

func (h *History) RecordCommits(runID string, entries []CommitEntry, decidedAt time.Time) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("history: record commits: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.Exec(`INSERT INTO commits (run_id, hpn, committed, decided_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, hpn) DO UPDATE SET committed = excluded.committed, decided_at = excluded.decided_at`,
			runID, e.HPN, e.Committed, decidedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("history: record commit %s: %w", e.HPN, err)
		}
	}
	return tx.Commit()
}

func (h *History) ListCommits(runID string) ([]CommitEntry, error) {
	rows, err := h.db.Query(`SELECT hpn, committed FROM commits WHERE run_id = ? ORDER BY hpn`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: list commits: %w", err)
	}
	defer rows.Close()

	var entries []CommitEntry
	for rows.Next() {
		var e CommitEntry
		if err := rows.Scan(&e.HPN, &e.Committed); err != nil {
			return nil, fmt.Errorf("history: scan commit: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
