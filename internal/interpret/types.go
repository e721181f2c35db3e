// Package interpret implements the constrained interpretation layer.
// It translates signals into human-readable explanations and is strictly
// bounded by them: it cannot contradict a signal or add facts of its own.
package interpret

import (
	"time"

	"resumeiq/internal/signal"
)

// Tone is the voice used for an interpretation.
type Tone string

const (
	ToneSupportive  Tone = "supportive"  // Encouraging, constructive
	ToneDirect      Tone = "direct"      // Clear, factual
	ToneCautious    Tone = "cautious"    // When uncertain
	ToneCelebratory Tone = "celebratory" // For positive signals
)

// Interpretation is a human-readable reading of one or more signals.
type Interpretation struct {
	ID              string    `json:"id"`
	SourceSignalIDs []string  `json:"source_signal_ids"`
	Explanation     string    `json:"explanation"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
	WhyItMatters    string    `json:"why_it_matters,omitempty"`
	Tone            Tone      `json:"tone"`
	Confidence      float64   `json:"confidence"`
	Category        string    `json:"category"`
	Priority        int       `json:"priority"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// severityPriority maps signal severity to display priority for signals
// without a dedicated template.
var severityPriority = map[signal.Severity]int{
	signal.SeverityCritical: 100,
	signal.SeverityHigh:     80,
	signal.SeverityMedium:   50,
	signal.SeverityLow:      20,
	signal.SeverityInfo:     10,
}

// typeCategory groups signal types into display categories.
var typeCategory = map[signal.Type]string{
	signal.TypeSectionPresent:      "structure",
	signal.TypeSectionMissing:      "structure",
	signal.TypeEmailValid:          "contact",
	signal.TypeEmailMissing:        "contact",
	signal.TypePhonePresent:        "contact",
	signal.TypeLinkedInPresent:     "contact",
	signal.TypeBulletCount:         "content",
	signal.TypeBulletHasMetric:     "content",
	signal.TypeBulletHasActionVerb: "content",
	signal.TypeBulletTooLong:       "content",
	signal.TypeBulletTooShort:      "content",
	signal.TypeSkillCount:          "skills",
	signal.TypeSkillMatch:          "skills",
	signal.TypeSkillMissing:        "skills",
	signal.TypeSkillPartialMatch:   "skills",
	signal.TypeFormatIssue:         "formatting",
	signal.TypeSpecialChars:        "formatting",
	signal.TypeATSParseable:        "ats",
	signal.TypeATSRisk:             "ats",
}

func categoryOf(t signal.Type) string {
	if c, ok := typeCategory[t]; ok {
		return c
	}
	return "general"
}
