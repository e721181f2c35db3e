package evaluation

import (
	"strings"
	"testing"
)

const hedgedFeedback = "Consider adding measurable outcomes to your experience section. " +
	"You might quantify the impact of your work, and it may help recruiters " +
	"see your scope. This could strengthen the summary as well."

func findValidation(r Report, name string) (ValidationResult, bool) {
	for _, v := range r.Validations {
		if v.ValidatorName == name {
			return v, true
		}
	}
	return ValidationResult{}, false
}

func TestEvaluateHedgedFeedbackPasses(t *testing.T) {
	report := NewEngine().Evaluate(hedgedFeedback, Context{})

	if report.OverallResult != ResultPass {
		t.Fatalf("overall = %s, want pass: %v", report.OverallResult, report.Validations)
	}
	if !report.PassesThreshold(0.7) {
		t.Fatalf("score = %.3f, should clear 0.7", report.OverallScore)
	}
	if len(report.FailedValidations()) != 0 {
		t.Fatalf("failed validators = %v, want none", report.FailedValidations())
	}
	if len(report.OutputHash) != 16 {
		t.Fatalf("hash length = %d, want 16", len(report.OutputHash))
	}
	if report.EvaluatorVersion != "1.0.0" {
		t.Fatalf("evaluator version = %s", report.EvaluatorVersion)
	}
}

func TestGuaranteeFailsEvaluation(t *testing.T) {
	output := "You are guaranteed to get interviews with this resume. " +
		"Recruiters respond to this format and your experience speaks for itself across the board."

	engine := NewEngine()
	report := engine.Evaluate(output, Context{})

	if report.OverallResult != ResultFail {
		t.Fatalf("overall = %s, want fail", report.OverallResult)
	}
	v, ok := findValidation(report, "forbidden_phrase_check")
	if !ok || v.Result != ResultFail || v.Score != 0 {
		t.Fatalf("forbidden phrase validation = %+v", v)
	}
	if report.PassesThreshold(0.0) {
		t.Fatal("a failed evaluation must not pass any threshold")
	}
	if engine.QuickCheck(output) {
		t.Fatal("QuickCheck should reject guaranteed outcomes")
	}
}

func TestFalseAuthorityPhraseDetected(t *testing.T) {
	report := NewEngine().Evaluate("As a hiring manager, I can tell you this works.", Context{})

	v, ok := findValidation(report, "forbidden_phrase_check")
	if !ok || v.Result != ResultFail {
		t.Fatalf("forbidden phrase validation = %+v", v)
	}
	if len(v.Details) != 1 || !strings.Contains(v.Details[0], "Must not claim false roles") {
		t.Fatalf("details = %v", v.Details)
	}
}

func TestOverconfidentOutputWarns(t *testing.T) {
	// Short and all-certainty: uncertainty and length validators both warn.
	output := "You must always lead with metrics."

	report := NewEngine().Evaluate(output, Context{})
	if report.OverallResult != ResultWarn {
		t.Fatalf("overall = %s, want warn", report.OverallResult)
	}

	v, _ := findValidation(report, "uncertainty_expression")
	if v.Result != ResultWarn || v.Score != 0.5 {
		t.Fatalf("uncertainty validation = %+v", v)
	}
	l, _ := findValidation(report, "output_length")
	if l.Result != ResultWarn {
		t.Fatalf("length validation = %+v", l)
	}
}

func TestToneSafetyFailsOnRepeatedHarshness(t *testing.T) {
	output := "This is a terrible summary and obviously you did not proofread it."

	report := NewEngine().Evaluate(output, Context{})
	v, _ := findValidation(report, "tone_safety")
	if v.Result != ResultFail {
		t.Fatalf("tone validation = %+v, want fail with two issues", v)
	}
	if len(v.Details) != 2 {
		t.Fatalf("tone details = %v, want 2 issues", v.Details)
	}
}

func TestFactualConsistencyFlagsNewNumbers(t *testing.T) {
	ctx := Context{OriginalContent: "Led a team of 5 engineers."}
	output := "Your team of 5 grew revenue 40% across 12 accounts in 3 quarters, saving 900 hours."

	report := NewEngine().Evaluate(output, ctx)
	v, _ := findValidation(report, "factual_consistency")
	if v.Result != ResultWarn || v.Score != 0.6 {
		t.Fatalf("consistency validation = %+v", v)
	}
	for _, d := range v.Details {
		if d == "5" {
			t.Fatal("numbers present in the original must not be flagged")
		}
	}
}

func TestQuickCheckIgnoresNonSafetyIssues(t *testing.T) {
	// Too short and introduces numbers, but safe.
	if !NewEngine().QuickCheck("Maybe add 3 metrics.") {
		t.Fatal("QuickCheck should only gate on safety validators")
	}
}

func TestCustomValidatorJoinsSuite(t *testing.T) {
	engine := NewEngine()
	engine.AddValidator(failingValidator{})

	report := engine.Evaluate(hedgedFeedback, Context{})
	if _, ok := findValidation(report, "always_fail"); !ok {
		t.Fatal("custom validator did not run")
	}
	// One non-safety failure downgrades the evaluation to warn.
	if report.OverallResult != ResultWarn {
		t.Fatalf("overall = %s, want warn", report.OverallResult)
	}
}

type failingValidator struct{}

func (failingValidator) Name() string       { return "always_fail" }
func (failingValidator) Category() Category { return CategoryQuality }
func (failingValidator) Weight() float64    { return 1.0 }
func (failingValidator) Validate(string, Context) ValidationResult {
	return ValidationResult{ValidatorName: "always_fail", Category: CategoryQuality, Result: ResultFail}
}
