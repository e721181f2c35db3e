package judgment

import (
	"fmt"
	"strings"

	"resumeiq/internal/interpret"
	"resumeiq/internal/logging"
	"resumeiq/internal/signal"
)

// ====== HARD RULES ======

// forbiddenPhrases must never appear in judgment content.
var forbiddenPhrases = []string{
	"guaranteed",
	"will definitely",
	"100%",
	"always get",
	"never fail",
	"promise",
	"certainly will",
	"your resume is perfect",
	"no improvements needed",
}

// uncertaintyPhrases mark appropriately hedged language.
var uncertaintyPhrases = []string{
	"may help",
	"could improve",
	"consider",
	"might strengthen",
	"potentially",
	"in many cases",
	"often works well",
	"recruiters typically",
}

// judgmentEnablers lists the signal types that permit each judgment type.
// Types absent from the map need no specific enabler.
var judgmentEnablers = map[Type][]signal.Type{
	TypeRewriteSuggestion: {
		signal.TypeBulletHasMetric,
		signal.TypeBulletHasActionVerb,
		signal.TypeBulletTooLong,
		signal.TypeBulletTooShort,
	},
	TypeSkillRecommendation: {
		signal.TypeSkillMissing,
		signal.TypeSkillPartialMatch,
		signal.TypeSkillCount,
	},
	TypeGapAnalysis: {
		signal.TypeSkillMissing,
		signal.TypeExperienceCount,
		signal.TypeSectionMissing,
	},
}

// Engine generates judgments while respecting the boundary constraints.
type Engine struct {
	boundary Boundary
	log      *logging.Logger
}

// NewEngine returns a judgment engine with the given boundary.
func NewEngine(boundary Boundary) *Engine {
	if boundary.MaxSuggestions <= 0 {
		boundary.MaxSuggestions = DefaultBoundary().MaxSuggestions
	}
	return &Engine{boundary: boundary, log: logging.Get(logging.CategoryJudgment)}
}

// Generate produces judgments of the requested types. Types whose enabling
// signals are absent are skipped. Every returned judgment passes validation.
func (e *Engine) Generate(signals []signal.Signal, interpretations []interpret.Interpretation, requested []Type) []Judgment {
	if len(requested) == 0 {
		requested = []Type{TypeRewriteSuggestion, TypeImprovementPriority, TypeStrengthHighlight}
	}

	var judgments []Judgment
	for _, t := range requested {
		if !e.hasEnablingSignals(t, signals) {
			continue
		}
		switch t {
		case TypeRewriteSuggestion:
			judgments = append(judgments, e.generateRewrites(signals)...)
		case TypeImprovementPriority:
			if j, ok := e.generatePriority(signals, interpretations); ok {
				judgments = append(judgments, j)
			}
		case TypeStrengthHighlight:
			judgments = append(judgments, e.generateStrengths(signals)...)
		case TypeSkillRecommendation:
			judgments = append(judgments, e.generateSkillRecommendations(signals)...)
		}
	}

	valid := judgments[:0]
	for _, j := range judgments {
		if e.validate(&j) {
			valid = append(valid, j)
		} else {
			e.log.Warn("judgment %s rejected by constraint validation", j.ID)
		}
	}
	return valid
}

func (e *Engine) hasEnablingSignals(t Type, signals []signal.Signal) bool {
	enablers, ok := judgmentEnablers[t]
	if !ok {
		return true
	}
	present := make(map[signal.Type]bool, len(signals))
	for _, s := range signals {
		present[s.Type] = true
	}
	for _, et := range enablers {
		if present[et] {
			return true
		}
	}
	return false
}

// generateRewrites suggests rewrites for bullets lacking action verbs.
func (e *Engine) generateRewrites(signals []signal.Signal) []Judgment {
	if !e.boundary.CanSuggestRewrites {
		return nil
	}

	var weak []signal.Signal
	for _, s := range signals {
		if s.Type == signal.TypeBulletHasActionVerb {
			if v, ok := s.Value.(bool); ok && !v {
				weak = append(weak, s)
			}
		}
	}
	if len(weak) > e.boundary.MaxSuggestions {
		weak = weak[:e.boundary.MaxSuggestions]
	}

	var judgments []Judgment
	for _, s := range weak {
		original, _ := s.Context["text"].(string)
		if original == "" {
			continue
		}
		firstWord, _ := s.Context["first_word"].(string)

		j, err := New(TypeRewriteSuggestion, "Consider strengthening this bullet point",
			[]string{s.ID}, nil)
		if err != nil {
			continue
		}
		j.Confidence = 0.75
		j.ConfidenceBasis = BasisPatternMatch
		j.ReasoningTrace = fmt.Sprintf("Bullet lacks action verb at start. First word: %q", firstWord)
		j.OriginalContent = original
		j.SuggestedContent = suggestRewrite(original, firstWord)
		j.Caveats = append(j.Caveats, "This is a suggestion - adjust to match your actual experience")
		judgments = append(judgments, j)
	}
	return judgments
}

// suggestRewrite prepends an action verb chosen from content hints.
func suggestRewrite(original, firstWord string) string {
	lower := strings.ToLower(original)
	var prefix string
	switch {
	case strings.Contains(lower, "team"):
		prefix = "Led"
	case strings.Contains(lower, "code") || strings.Contains(lower, "software"):
		prefix = "Developed"
	case strings.Contains(lower, "project"):
		prefix = "Managed"
	default:
		prefix = "Delivered"
	}

	if firstWord != "" && strings.HasPrefix(strings.ToLower(original), firstWord) {
		return prefix + " " + strings.TrimSpace(original[len(firstWord):])
	}
	return prefix + " " + original
}

// generatePriority recommends what to fix first based on severity.
func (e *Engine) generatePriority(signals []signal.Signal, interpretations []interpret.Interpretation) (Judgment, bool) {
	var critical, high []signal.Signal
	for _, s := range signals {
		switch s.Severity {
		case signal.SeverityCritical:
			critical = append(critical, s)
		case signal.SeverityHigh:
			high = append(high, s)
		}
	}

	var top *signal.Signal
	var content string
	var confidence float64
	switch {
	case len(critical) > 0:
		top = &critical[0]
		content = fmt.Sprintf("Priority: Address critical issues first - %s", top.Description)
		confidence = 0.95
	case len(high) > 0:
		top = &high[0]
		content = fmt.Sprintf("Priority: Focus on high-impact improvements - %s", top.Description)
		confidence = 0.85
	case len(signals) > 0:
		top = &signals[0]
		content = "Your resume is in good shape. Consider fine-tuning the suggested improvements."
		confidence = 0.7
	default:
		return Judgment{}, false
	}

	var citedSignals []string
	if top != nil {
		citedSignals = []string{top.ID}
	}
	var citedInterps []string
	if len(interpretations) > 0 {
		citedInterps = []string{interpretations[0].ID}
	}

	j, err := New(TypeImprovementPriority, content, citedSignals, citedInterps)
	if err != nil {
		return Judgment{}, false
	}
	j.Confidence = confidence
	j.ConfidenceBasis = BasisSignalBased
	j.ReasoningTrace = fmt.Sprintf("Prioritized based on signal severity. Critical: %d, High: %d",
		len(critical), len(high))
	j.Caveats = append(j.Caveats, "Priority may vary based on your target role and timeline")
	return j, true
}

// generateStrengths highlights what is working well.
func (e *Engine) generateStrengths(signals []signal.Signal) []Judgment {
	var matches []signal.Signal
	for _, s := range signals {
		if s.Type == signal.TypeSkillMatch {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, len(matches))
	for i, s := range matches {
		ids[i] = s.ID
	}

	j, err := New(TypeStrengthHighlight,
		fmt.Sprintf("Strong skill alignment: %d of your skills match the requirements", len(matches)),
		ids, nil)
	if err != nil {
		return nil
	}
	j.Confidence = 0.9
	j.ConfidenceBasis = BasisSignalBased
	j.ReasoningTrace = "Direct skill matching between resume and job requirements"
	return []Judgment{j}
}

// generateSkillRecommendations suggests skills worth developing.
func (e *Engine) generateSkillRecommendations(signals []signal.Signal) []Judgment {
	if !e.boundary.CanRecommendSkills {
		return nil
	}

	var missing []signal.Signal
	for _, s := range signals {
		if s.Type == signal.TypeSkillMissing {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) > 5 {
		missing = missing[:5]
	}

	skills := make([]string, len(missing))
	ids := make([]string, len(missing))
	for i, s := range missing {
		skills[i] = fmt.Sprint(s.Value)
		ids[i] = s.ID
	}

	j, err := New(TypeSkillRecommendation,
		fmt.Sprintf("Consider developing these skills if relevant to your career goals: %s",
			strings.Join(skills, ", ")),
		ids, nil)
	if err != nil {
		return nil
	}
	j.Confidence = 0.7
	j.ConfidenceBasis = BasisInference
	j.ReasoningTrace = "Skills identified as missing from job requirements"
	j.Caveats = append(j.Caveats,
		"Only pursue skills aligned with your career direction",
		"Consider transferable skills you may have under different names")
	return []Judgment{j}
}

// validate enforces the phrase constraints. Low-confidence judgments that
// are not signal-based and lack hedged language get an uncertainty prefix.
func (e *Engine) validate(j *Judgment) bool {
	lower := strings.ToLower(j.Content)

	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if j.Confidence < 0.8 && j.ConfidenceBasis != BasisSignalBased {
		hedged := false
		for _, phrase := range uncertaintyPhrases {
			if strings.Contains(lower, phrase) {
				hedged = true
				break
			}
		}
		if !hedged {
			j.Content = "This may help: " + j.Content
		}
	}

	return len(j.CitedSignalIDs) > 0 || len(j.CitedInterpretationIDs) > 0
}
