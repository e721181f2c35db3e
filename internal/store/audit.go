package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry is one governance event in the durable audit trail.
type AuditEntry struct {
	Registry  string                 `json:"registry"`
	Action    string                 `json:"action"`
	Target    string                 `json:"target"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// AppendAudit records a governance event.
func (s *Store) AppendAudit(entry AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = s.db.Exec(
		`INSERT INTO audit_log (registry, action, target, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.Registry, entry.Action, entry.Target, string(details), ts)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditHistory returns events for a target, oldest first.
func (s *Store) AuditHistory(registry, target string) ([]AuditEntry, error) {
	rows, err := s.db.Query(
		`SELECT action, target, details, created_at FROM audit_log
		 WHERE registry = ? AND target = ? ORDER BY id ASC`,
		registry, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var details string
		if err := rows.Scan(&e.Action, &e.Target, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		e.Registry = registry
		if details != "" && details != "null" {
			if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
				s.log.Warn("unparseable audit details for %s: %v", target, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
