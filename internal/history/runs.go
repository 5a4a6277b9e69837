package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one sbox invocation: a root directory traced under one
// command line, from start until the tracee exits.
type Run struct {
	ID         string
	Root       string
	Command    string
	StartedAt  time.Time
	FinishedAt *time.Time
	ExitCode   *int
}

func (h *History) StartRun(r *Run) error {
	_, err := h.db.Exec(`INSERT INTO runs (id, root, command, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Root, r.Command, r.StartedAt)
	if err != nil {
		return fmt.Errorf("history: start run: %w", err)
	}
	return nil
}

func (h *History) FinishRun(id string, finishedAt time.Time, exitCode int) error {
	_, err := h.db.Exec(`UPDATE runs SET finished_at = ?, exit_code = ? WHERE id = ?`,
		finishedAt, exitCode, id)
	if err != nil {
		return fmt.Errorf("history: finish run: %w", err)
	}
	return nil
}

func (h *History) GetRun(id string) (*Run, error) {
	r := &Run{}
	err := h.db.QueryRow(`SELECT id, root, command, started_at, finished_at, exit_code FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.Root, &r.Command, &r.StartedAt, &r.FinishedAt, &r.ExitCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: get run: %w", err)
	}
	return r, nil
}

func (h *History) ListRuns() ([]*Run, error) {
	rows, err := h.db.Query(`SELECT id, root, command, started_at, finished_at, exit_code FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Root, &r.Command, &r.StartedAt, &r.FinishedAt, &r.ExitCode); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
