package evaluation

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"resumeiq/internal/logging"
)

const evaluatorVersion = "1.0.0"

// Report is the full result of evaluating one output.
type Report struct {
	OutputHash string    `json:"output_hash"`
	Timestamp  time.Time `json:"timestamp"`

	Validations   []ValidationResult `json:"validations"`
	OverallResult Result             `json:"overall_result"`
	OverallScore  float64            `json:"overall_score"`

	SafetyScore      float64 `json:"safety_score"`
	QualityScore     float64 `json:"quality_score"`
	ConsistencyScore float64 `json:"consistency_score"`

	EvaluationTimeMS float64 `json:"evaluation_time_ms"`
	EvaluatorVersion string  `json:"evaluator_version"`
}

// PassesThreshold reports whether the output clears the minimum score
// and did not fail outright.
func (r Report) PassesThreshold(minScore float64) bool {
	return r.OverallScore >= minScore && r.OverallResult != ResultFail
}

// FailedValidations lists the names of validators that failed.
func (r Report) FailedValidations() []string {
	var names []string
	for _, v := range r.Validations {
		if v.Result == ResultFail {
			names = append(names, v.ValidatorName)
		}
	}
	return names
}

// Engine runs the validator suite over AI outputs.
type Engine struct {
	validators []Validator
	log        *logging.Logger
}

// NewEngine builds an engine with the standard validator suite.
func NewEngine() *Engine {
	return &Engine{
		validators: []Validator{
			ForbiddenPhraseValidator{},
			UncertaintyExpressionValidator{},
			ToneSafetyValidator{},
			OutputLengthValidator{},
			FactualConsistencyValidator{},
		},
		log: logging.Get(logging.CategoryEvaluation),
	}
}

// AddValidator appends a custom validator to the suite.
func (e *Engine) AddValidator(v Validator) {
	e.validators = append(e.validators, v)
}

// Evaluate runs every validator and aggregates the verdicts.
func (e *Engine) Evaluate(output string, ctx Context) Report {
	start := time.Now()

	results := make([]ValidationResult, 0, len(e.validators))
	for _, v := range e.validators {
		results = append(results, v.Validate(output, ctx))
	}

	categoryScores := e.categoryScores(results)
	report := Report{
		OutputHash:       hashOutput(output),
		Timestamp:        time.Now().UTC(),
		Validations:      results,
		OverallResult:    e.overallResult(results),
		OverallScore:     e.overallScore(results),
		SafetyScore:      scoreOrDefault(categoryScores, CategorySafety),
		QualityScore:     scoreOrDefault(categoryScores, CategoryQuality),
		ConsistencyScore: scoreOrDefault(categoryScores, CategoryConsistency),
		EvaluationTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		EvaluatorVersion: evaluatorVersion,
	}

	e.log.Debug("evaluated output %s: %s (%.2f)", report.OutputHash, report.OverallResult, report.OverallScore)
	return report
}

// QuickCheck runs only the safety validators for real-time gating.
func (e *Engine) QuickCheck(output string) bool {
	for _, v := range e.validators {
		if v.Category() != CategorySafety {
			continue
		}
		if v.Validate(output, Context{}).Result == ResultFail {
			return false
		}
	}
	return true
}

func (e *Engine) categoryScores(results []ValidationResult) map[Category]float64 {
	sums := make(map[Category]float64)
	counts := make(map[Category]int)
	for _, r := range results {
		sums[r.Category] += r.Score
		counts[r.Category]++
	}
	scores := make(map[Category]float64, len(sums))
	for cat, sum := range sums {
		scores[cat] = sum / float64(counts[cat])
	}
	return scores
}

func (e *Engine) overallScore(results []ValidationResult) float64 {
	var totalWeight, weightedSum float64
	for i, r := range results {
		weight := 1.0
		if i < len(e.validators) {
			weight = e.validators[i].Weight()
		}
		totalWeight += weight
		weightedSum += r.Score * weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// overallResult: any safety failure fails the whole evaluation, two
// failures of any kind fail it, one failure or two warnings downgrade
// to warn.
func (e *Engine) overallResult(results []ValidationResult) Result {
	failCount, warnCount := 0, 0
	for _, r := range results {
		switch r.Result {
		case ResultFail:
			if r.Category == CategorySafety {
				return ResultFail
			}
			failCount++
		case ResultWarn:
			warnCount++
		}
	}
	if failCount >= 2 {
		return ResultFail
	}
	if failCount >= 1 || warnCount >= 2 {
		return ResultWarn
	}
	return ResultPass
}

func scoreOrDefault(scores map[Category]float64, cat Category) float64 {
	if s, ok := scores[cat]; ok {
		return s
	}
	return 1.0
}

func hashOutput(output string) string {
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])[:16]
}
