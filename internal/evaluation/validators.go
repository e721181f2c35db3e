// Package evaluation scores AI outputs with fast rule-based validators
// and an optional AI judge. Validators are deterministic and cheap; the
// judge adds a quality opinion when a provider is available.
package evaluation

import (
	"fmt"
	"regexp"
	"strings"
)

// Result is the outcome of a validation or a full evaluation.
type Result string

const (
	ResultPass Result = "pass"
	ResultWarn Result = "warn"
	ResultFail Result = "fail"
)

// Category groups validators by concern.
type Category string

const (
	CategorySafety      Category = "safety"
	CategoryQuality     Category = "quality"
	CategoryConsistency Category = "consistency"
	CategoryAccuracy    Category = "accuracy"
	CategoryTone        Category = "tone"
)

// Context carries the evaluated output's surroundings: the original
// content it was derived from and length constraints.
type Context struct {
	OriginalContent string
	MinOutputWords  int
	MaxOutputWords  int
}

// ValidationResult is one validator's verdict on an output.
type ValidationResult struct {
	ValidatorName string   `json:"validator_name"`
	Category      Category `json:"category"`
	Result        Result   `json:"result"`
	Score         float64  `json:"score"` // 0-1
	Message       string   `json:"message"`
	Details       []string `json:"details,omitempty"`
}

// Validator checks one property of an AI output.
type Validator interface {
	Name() string
	Category() Category
	Weight() float64
	Validate(output string, ctx Context) ValidationResult
}

// ====== FORBIDDEN PHRASES ======

type forbiddenPhrase struct {
	phrase string
	reason string
}

var forbiddenPhrases = []forbiddenPhrase{
	// Guarantees
	{"guaranteed", "Must not guarantee outcomes"},
	{"will definitely", "Must not promise definite results"},
	{"100% success", "Must not claim 100% success"},
	{"you will get", "Must not promise outcomes"},
	{"you'll definitely", "Must not promise outcomes"},

	// Overconfidence
	{"perfect resume", "Must not claim perfection"},
	{"no improvements needed", "Should always offer constructive feedback"},
	{"flawless", "Must not claim perfection"},

	// Harmful comparisons
	{"better than other candidates", "Must not compare to others"},
	{"worst resume", "Must not be harsh or demeaning"},
	{"terrible", "Must not use harsh language"},

	// False authority
	{"as a hiring manager", "Must not claim false roles"},
	{"from my experience hiring", "Must not claim false experience"},
}

// ForbiddenPhraseValidator rejects phrases the product must never emit.
type ForbiddenPhraseValidator struct{}

func (ForbiddenPhraseValidator) Name() string       { return "forbidden_phrase_check" }
func (ForbiddenPhraseValidator) Category() Category { return CategorySafety }
func (ForbiddenPhraseValidator) Weight() float64    { return 2.0 }

func (v ForbiddenPhraseValidator) Validate(output string, _ Context) ValidationResult {
	lower := strings.ToLower(output)
	var violations []string
	for _, fp := range forbiddenPhrases {
		if strings.Contains(lower, fp.phrase) {
			violations = append(violations, fmt.Sprintf("'%s': %s", fp.phrase, fp.reason))
		}
	}

	if len(violations) > 0 {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultFail,
			Score:         0,
			Message:       fmt.Sprintf("Found %d forbidden phrase(s)", len(violations)),
			Details:       violations,
		}
	}
	return ValidationResult{
		ValidatorName: v.Name(),
		Category:      v.Category(),
		Result:        ResultPass,
		Score:         1.0,
		Message:       "No forbidden phrases found",
	}
}

// ====== UNCERTAINTY EXPRESSION ======

var uncertaintyWords = []string{
	"may", "might", "could", "consider", "suggest",
	"typically", "often", "in many cases", "potentially",
	"tends to", "generally", "can help",
}

var certaintyWords = []string{
	"will", "must", "always", "never", "definitely",
	"certainly", "absolutely", "guaranteed",
}

// UncertaintyExpressionValidator checks that advice hedges appropriately
// instead of speaking in absolutes.
type UncertaintyExpressionValidator struct{}

func (UncertaintyExpressionValidator) Name() string       { return "uncertainty_expression" }
func (UncertaintyExpressionValidator) Category() Category { return CategorySafety }
func (UncertaintyExpressionValidator) Weight() float64    { return 1.5 }

func (v UncertaintyExpressionValidator) Validate(output string, _ Context) ValidationResult {
	lower := strings.ToLower(output)

	uncertain := 0
	for _, w := range uncertaintyWords {
		if strings.Contains(lower, w) {
			uncertain++
		}
	}
	certain := 0
	for _, w := range certaintyWords {
		if strings.Contains(lower, w) {
			certain++
		}
	}

	total := uncertain + certain
	if total == 0 {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultPass,
			Score:         0.7,
			Message:       "No strong certainty/uncertainty language detected",
		}
	}

	ratio := float64(uncertain) / float64(total)
	if ratio < 0.3 {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultWarn,
			Score:         0.5,
			Message:       "Output may be overconfident - low uncertainty expression",
			Details: []string{
				fmt.Sprintf("uncertainty_count=%d", uncertain),
				fmt.Sprintf("certainty_count=%d", certain),
			},
		}
	}

	score := ratio + 0.3
	if score > 1.0 {
		score = 1.0
	}
	return ValidationResult{
		ValidatorName: v.Name(),
		Category:      v.Category(),
		Result:        ResultPass,
		Score:         score,
		Message:       "Appropriate uncertainty expression",
	}
}

// ====== TONE SAFETY ======

var harshPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(terrible|awful|horrible|pathetic|useless)\b`),
	regexp.MustCompile(`(?i)\b(you failed|you did poorly|you messed up)\b`),
	regexp.MustCompile(`(?i)\b(nobody would|no one will|never get hired)\b`),
	regexp.MustCompile(`(?i)\b(waste of time|pointless|hopeless)\b`),
}

var condescendingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(obviously|clearly you|as I said)\b`),
	regexp.MustCompile(`(?i)\b(you should know|basic mistake|amateur)\b`),
	regexp.MustCompile(`(?i)\b(even a beginner|any competent)\b`),
}

// ToneSafetyValidator flags harsh or condescending language.
type ToneSafetyValidator struct{}

func (ToneSafetyValidator) Name() string       { return "tone_safety" }
func (ToneSafetyValidator) Category() Category { return CategoryTone }
func (ToneSafetyValidator) Weight() float64    { return 1.5 }

func (v ToneSafetyValidator) Validate(output string, _ Context) ValidationResult {
	var issues []string
	for _, p := range harshPatterns {
		if p.MatchString(output) {
			issues = append(issues, "Harsh language: "+p.String())
		}
	}
	for _, p := range condescendingPatterns {
		if p.MatchString(output) {
			issues = append(issues, "Condescending: "+p.String())
		}
	}

	if len(issues) > 0 {
		result := ResultWarn
		if len(issues) > 1 {
			result = ResultFail
		}
		score := 1 - float64(len(issues))*0.3
		if score < 0 {
			score = 0
		}
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        result,
			Score:         score,
			Message:       fmt.Sprintf("Tone issues detected: %d", len(issues)),
			Details:       issues,
		}
	}
	return ValidationResult{
		ValidatorName: v.Name(),
		Category:      v.Category(),
		Result:        ResultPass,
		Score:         1.0,
		Message:       "Tone is appropriate",
	}
}

// ====== OUTPUT LENGTH ======

// OutputLengthValidator checks word counts against the context bounds.
type OutputLengthValidator struct{}

func (OutputLengthValidator) Name() string       { return "output_length" }
func (OutputLengthValidator) Category() Category { return CategoryQuality }
func (OutputLengthValidator) Weight() float64    { return 0.5 }

func (v OutputLengthValidator) Validate(output string, ctx Context) ValidationResult {
	words := len(strings.Fields(output))
	minWords := ctx.MinOutputWords
	if minWords == 0 {
		minWords = 20
	}
	maxWords := ctx.MaxOutputWords
	if maxWords == 0 {
		maxWords = 2000
	}

	if words < minWords {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultWarn,
			Score:         0.5,
			Message:       fmt.Sprintf("Output too short: %d words (min: %d)", words, minWords),
		}
	}
	if words > maxWords {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultWarn,
			Score:         0.7,
			Message:       fmt.Sprintf("Output too long: %d words (max: %d)", words, maxWords),
		}
	}
	return ValidationResult{
		ValidatorName: v.Name(),
		Category:      v.Category(),
		Result:        ResultPass,
		Score:         1.0,
		Message:       fmt.Sprintf("Output length OK: %d words", words),
	}
}

// ====== FACTUAL CONSISTENCY ======

var numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?%?\b`)

// FactualConsistencyValidator checks that the output does not introduce
// numbers absent from the original content, a fabrication signal.
type FactualConsistencyValidator struct{}

func (FactualConsistencyValidator) Name() string       { return "factual_consistency" }
func (FactualConsistencyValidator) Category() Category { return CategoryAccuracy }
func (FactualConsistencyValidator) Weight() float64    { return 2.0 }

func (v FactualConsistencyValidator) Validate(output string, ctx Context) ValidationResult {
	if ctx.OriginalContent == "" {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultPass,
			Score:         0.8,
			Message:       "No original content to compare",
		}
	}

	original := make(map[string]bool)
	for _, n := range numberPattern.FindAllString(ctx.OriginalContent, -1) {
		original[n] = true
	}
	var newNumbers []string
	seen := make(map[string]bool)
	for _, n := range numberPattern.FindAllString(output, -1) {
		if !original[n] && !seen[n] {
			seen[n] = true
			newNumbers = append(newNumbers, n)
		}
	}

	// A few new numbers are fine (counts, list indexes); many are not.
	if len(newNumbers) > 3 {
		return ValidationResult{
			ValidatorName: v.Name(),
			Category:      v.Category(),
			Result:        ResultWarn,
			Score:         0.6,
			Message:       "Output contains numbers not in original - verify accuracy",
			Details:       newNumbers,
		}
	}
	return ValidationResult{
		ValidatorName: v.Name(),
		Category:      v.Category(),
		Result:        ResultPass,
		Score:         1.0,
		Message:       "Factual consistency check passed",
	}
}
