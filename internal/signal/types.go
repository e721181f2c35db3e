// Package signal implements the deterministic signal layer. Pure logic,
// zero AI. Signals are facts: reproducible from identical input, auditable,
// and immutable once computed. The AI layers must respect them.
package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Type categorizes a deterministic signal.
type Type string

const (
	// Structure signals
	TypeSectionPresent Type = "section_present"
	TypeSectionMissing Type = "section_missing"

	// Contact signals
	TypeEmailValid      Type = "email_valid"
	TypeEmailMissing    Type = "email_missing"
	TypePhonePresent    Type = "phone_present"
	TypeLinkedInPresent Type = "linkedin_present"

	// Experience signals
	TypeExperienceCount Type = "experience_count"
	TypeEmploymentGap   Type = "employment_gap"
	TypeJobHopping      Type = "job_hopping"

	// Bullet signals
	TypeBulletCount         Type = "bullet_count"
	TypeBulletHasMetric     Type = "bullet_has_metric"
	TypeBulletHasActionVerb Type = "bullet_has_action_verb"
	TypeBulletTooLong       Type = "bullet_too_long"
	TypeBulletTooShort      Type = "bullet_too_short"

	// Skill signals
	TypeSkillCount        Type = "skill_count"
	TypeSkillMatch        Type = "skill_match"
	TypeSkillMissing      Type = "skill_missing"
	TypeSkillPartialMatch Type = "skill_partial_match"

	// Format signals
	TypeFormatIssue       Type = "format_issue"
	TypeSpecialChars      Type = "special_chars"
	TypeInconsistentDates Type = "inconsistent_dates"

	// ATS signals
	TypeATSParseable Type = "ats_parseable"
	TypeATSRisk      Type = "ats_risk"
)

// Severity ranks how critical a signal is.
type Severity string

const (
	SeverityCritical Severity = "critical" // Blocks hiring (missing email, unparseable)
	SeverityHigh     Severity = "high"     // Strongly negative (no metrics, gaps)
	SeverityMedium   Severity = "medium"   // Improvement opportunity
	SeverityLow      Severity = "low"      // Nice to have
	SeverityInfo     Severity = "info"     // Neutral information
)

// Signal is a single deterministic fact about a resume.
type Signal struct {
	ID             string                 `json:"id"`
	Type           Type                   `json:"type"`
	Severity       Severity               `json:"severity"`
	Value          interface{}            `json:"value"`
	Context        map[string]interface{} `json:"context,omitempty"`
	SourceLocation string                 `json:"source_location,omitempty"`
	Description    string                 `json:"description"`
	ComputedAt     time.Time              `json:"computed_at"`
}

// newSignal builds a Signal with its deterministic ID.
func newSignal(t Type, sev Severity, value interface{}, location, description string) Signal {
	return Signal{
		ID:             hashID(t, value, location),
		Type:           t,
		Severity:       sev,
		Value:          value,
		SourceLocation: location,
		Description:    description,
		ComputedAt:     time.Now().UTC(),
	}
}

// hashID derives the content hash identifying a signal. Identical type,
// value, and location always produce the same ID.
func hashID(t Type, value interface{}, location string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%v:%s", t, value, location)))
	return hex.EncodeToString(sum[:])[:12]
}

// Summary aggregates a signal set for quick triage.
type Summary struct {
	TotalSignals   int              `json:"total_signals"`
	BySeverity     map[Severity]int `json:"by_severity"`
	ByType         map[Type]int     `json:"by_type"`
	CriticalIssues []string         `json:"critical_issues"`
	HighIssues     []string         `json:"high_issues"`
}

// Summarize builds a Summary from extracted signals.
func Summarize(signals []Signal) Summary {
	s := Summary{
		TotalSignals: len(signals),
		BySeverity:   make(map[Severity]int),
		ByType:       make(map[Type]int),
	}
	for _, sig := range signals {
		s.BySeverity[sig.Severity]++
		s.ByType[sig.Type]++
		switch sig.Severity {
		case SeverityCritical:
			s.CriticalIssues = append(s.CriticalIssues, sig.Description)
		case SeverityHigh:
			s.HighIssues = append(s.HighIssues, sig.Description)
		}
	}
	return s
}
