package store

import (
	"fmt"
	"time"
)

// FrozenCase is the durable row for a frozen test case. Rows are insert-only;
// a case never changes after freezing.
type FrozenCase struct {
	CaseID       string    `json:"case_id"`
	Category     string    `json:"category"`
	Input        string    `json:"input"`
	ExpectedJSON string    `json:"expected_json,omitempty"`
	FrozenAt     time.Time `json:"frozen_at"`
}

// SaveFrozenCase persists a case. Re-freezing an existing case id is a no-op.
func (s *Store) SaveFrozenCase(c FrozenCase) error {
	ts := c.FrozenAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO frozen_cases (case_id, category, input, expected_json, frozen_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.CaseID, c.Category, c.Input, c.ExpectedJSON, ts)
	if err != nil {
		return fmt.Errorf("failed to save frozen case %s: %w", c.CaseID, err)
	}
	return nil
}

// ListFrozenCases returns all frozen cases, oldest first.
func (s *Store) ListFrozenCases() ([]FrozenCase, error) {
	rows, err := s.db.Query(
		`SELECT case_id, category, input, COALESCE(expected_json, ''), frozen_at
		 FROM frozen_cases ORDER BY frozen_at ASC, case_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query frozen cases: %w", err)
	}
	defer rows.Close()

	var cases []FrozenCase
	for rows.Next() {
		var c FrozenCase
		if err := rows.Scan(&c.CaseID, &c.Category, &c.Input, &c.ExpectedJSON, &c.FrozenAt); err != nil {
			return nil, fmt.Errorf("failed to scan frozen case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
