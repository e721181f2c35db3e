package config

import "fmt"

// PolicyConfig carries the governance thresholds. The defaults are the
// product's shipped policy; changing them changes what the promotion
// gates accept, so Validate keeps them inside sane ranges.
type PolicyConfig struct {
	// QualityThreshold is the minimum quality score for promotion (0-1).
	QualityThreshold float64 `yaml:"quality_threshold"`

	// SafetyThreshold is the minimum safety score for promotion (0-1).
	SafetyThreshold float64 `yaml:"safety_threshold"`

	// MinImprovement is the minimum score delta a candidate must show
	// over its baseline before it can be promoted.
	MinImprovement float64 `yaml:"min_improvement"`

	// MaxRegressionRate is the maximum fraction of frozen cases a
	// candidate may lose against the baseline (0-1).
	MaxRegressionRate float64 `yaml:"max_regression_rate"`

	// JudgePassScore is the minimum AI-judge overall score (0-10).
	JudgePassScore float64 `yaml:"judge_pass_score"`
}

// DefaultPolicyConfig returns the shipped governance policy.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		QualityThreshold:  0.7,
		SafetyThreshold:   0.9,
		MinImprovement:    0.05,
		MaxRegressionRate: 0.30,
		JudgePassScore:    7.0,
	}
}

// Validate rejects thresholds outside their meaningful ranges.
func (p PolicyConfig) Validate() error {
	unit := map[string]float64{
		"quality_threshold":   p.QualityThreshold,
		"safety_threshold":    p.SafetyThreshold,
		"min_improvement":     p.MinImprovement,
		"max_regression_rate": p.MaxRegressionRate,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			return fmt.Errorf("policy %s must be in [0,1], got %v", name, v)
		}
	}
	if p.JudgePassScore < 0 || p.JudgePassScore > 10 {
		return fmt.Errorf("policy judge_pass_score must be in [0,10], got %v", p.JudgePassScore)
	}
	return nil
}
