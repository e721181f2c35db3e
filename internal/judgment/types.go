// Package judgment implements the guardrailed judgment layer. Judgments
// must cite signals or interpretations, cannot contradict Layer 1 facts,
// never guarantee outcomes, and express uncertainty appropriately.
package judgment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"resumeiq/internal/types"
)

// Type categorizes a judgment.
type Type string

const (
	TypeRewriteSuggestion   Type = "rewrite_suggestion"   // Suggest rewrites
	TypeSkillRecommendation Type = "skill_recommendation" // Recommend skills to add
	TypeCareerInsight       Type = "career_insight"       // Career advice
	TypeImprovementPriority Type = "improvement_priority" // What to fix first
	TypeAlternativeFraming  Type = "alternative_framing"  // Different ways to phrase
	TypeGapAnalysis         Type = "gap_analysis"         // Skill/experience gaps
	TypeStrengthHighlight   Type = "strength_highlight"   // What's working well
)

// ConfidenceBasis explains why confidence sits at its level.
type ConfidenceBasis string

const (
	BasisSignalBased  ConfidenceBasis = "signal_based" // Grounded in Layer 1 signals
	BasisPatternMatch ConfidenceBasis = "pattern_match"
	BasisInference    ConfidenceBasis = "inference"
	BasisUncertain    ConfidenceBasis = "uncertain"
)

// Boundary defines what a judgment engine can and cannot do.
// These are hard constraints enforced at generation time.
type Boundary struct {
	CanSuggestRewrites  bool
	CanRecommendSkills  bool
	CanGiveCareerAdvice bool
	CanCompareToOthers  bool
	MaxSuggestions      int

	// canPredictOutcomes has no setter. Outcome prediction is never enabled.
	canPredictOutcomes bool
}

// DefaultBoundary returns the shipped judgment boundary.
func DefaultBoundary() Boundary {
	return Boundary{
		CanSuggestRewrites:  true,
		CanRecommendSkills:  true,
		CanGiveCareerAdvice: false,
		CanCompareToOthers:  false,
		MaxSuggestions:      5,
	}
}

// CanPredictOutcomes always reports false.
func (b Boundary) CanPredictOutcomes() bool { return false }

const careerInsightCaveat = "This is general guidance and may not apply to your specific situation"

// Judgment is an AI-generated suggestion or conclusion with full
// traceability back to its sources.
type Judgment struct {
	ID                     string          `json:"id"`
	Type                   Type            `json:"type"`
	Content                string          `json:"content"`
	CitedSignalIDs         []string        `json:"cited_signal_ids"`
	CitedInterpretationIDs []string        `json:"cited_interpretation_ids,omitempty"`
	Confidence             float64         `json:"confidence"`
	ConfidenceBasis        ConfidenceBasis `json:"confidence_basis"`
	ReasoningTrace         string          `json:"reasoning_trace,omitempty"`
	OriginalContent        string          `json:"original_content,omitempty"`
	SuggestedContent       string          `json:"suggested_content,omitempty"`
	Caveats                []string        `json:"caveats,omitempty"`
	ModelUsed              string          `json:"model_used,omitempty"`
	GeneratedAt            time.Time       `json:"generated_at"`
}

// New constructs a Judgment, enforcing the citation invariant: a judgment
// that cites no signals and no interpretations cannot exist.
func New(t Type, content string, citedSignals, citedInterpretations []string) (Judgment, error) {
	if len(citedSignals) == 0 && len(citedInterpretations) == 0 {
		return Judgment{}, &types.CitationViolation{JudgmentType: string(t)}
	}

	j := Judgment{
		ID:                     uuid.NewString(),
		Type:                   t,
		Content:                content,
		CitedSignalIDs:         citedSignals,
		CitedInterpretationIDs: citedInterpretations,
		Confidence:             0.7,
		ConfidenceBasis:        BasisInference,
		GeneratedAt:            time.Now().UTC(),
	}

	if t == TypeCareerInsight {
		j.Caveats = append(j.Caveats, careerInsightCaveat)
	}

	return j, nil
}

// HasCaveat reports whether the judgment carries a caveat containing s.
func (j Judgment) HasCaveat(s string) bool {
	for _, c := range j.Caveats {
		if strings.Contains(c, s) {
			return true
		}
	}
	return false
}
