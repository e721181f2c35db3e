package store

import (
	"fmt"
	"time"
)

// ShadowRun is one recorded production-vs-shadow comparison.
type ShadowRun struct {
	InputHash       string    `json:"input_hash"`
	ProductionScore float64   `json:"production_score"`
	ShadowScore     float64   `json:"shadow_score"`
	Improvement     float64   `json:"improvement"`
	ShadowBetter    bool      `json:"shadow_better"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecordShadowRun persists one shadow comparison.
func (s *Store) RecordShadowRun(run ShadowRun) error {
	ts := run.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO shadow_runs (input_hash, production_score, shadow_score, improvement, shadow_better, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.InputHash, run.ProductionScore, run.ShadowScore, run.Improvement,
		boolToInt(run.ShadowBetter), ts)
	if err != nil {
		return fmt.Errorf("failed to record shadow run: %w", err)
	}
	return nil
}

// ShadowStats aggregates the recorded shadow history.
type ShadowStats struct {
	Runs               int     `json:"runs"`
	ShadowWins         int     `json:"shadow_wins"`
	WinRate            float64 `json:"win_rate"`
	AverageImprovement float64 `json:"average_improvement"`
}

// ShadowHistoryStats computes stats over all recorded shadow runs.
func (s *Store) ShadowHistoryStats() (ShadowStats, error) {
	var stats ShadowStats
	var avg *float64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(shadow_better), 0), AVG(improvement) FROM shadow_runs`,
	).Scan(&stats.Runs, &stats.ShadowWins, &avg)
	if err != nil {
		return stats, fmt.Errorf("failed to query shadow stats: %w", err)
	}
	if stats.Runs > 0 {
		stats.WinRate = float64(stats.ShadowWins) / float64(stats.Runs)
	}
	if avg != nil {
		stats.AverageImprovement = *avg
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
