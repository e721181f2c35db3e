package evaluation

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Comparison is the result of judging two outputs against each other.
type Comparison struct {
	Winner string  `json:"winner"` // "A", "B", or "tie"
	Margin float64 `json:"margin"`

	ScoreA float64 `json:"score_a"`
	ScoreB float64 `json:"score_b"`

	EvalA JudgeEvaluation `json:"eval_a"`
	EvalB JudgeEvaluation `json:"eval_b"`

	Recommendation string `json:"recommendation"`
}

// ComparativeJudge determines which of two outputs is better, for A/B
// testing and the improvement pipeline.
type ComparativeJudge struct {
	judge *AIJudge
}

// NewComparativeJudge wraps an AIJudge for pairwise comparison.
func NewComparativeJudge(judge *AIJudge) *ComparativeJudge {
	return &ComparativeJudge{judge: judge}
}

// Compare evaluates both outputs and picks a winner. Scores within half
// a point are a tie.
func (c *ComparativeJudge) Compare(ctx context.Context, outputA, outputB, originalInput string, jctx JudgeContext) (Comparison, error) {
	evalA, err := c.judge.Evaluate(ctx, outputA, originalInput, jctx)
	if err != nil {
		return Comparison{}, err
	}
	evalB, err := c.judge.Evaluate(ctx, outputB, originalInput, jctx)
	if err != nil {
		return Comparison{}, err
	}

	scoreA, scoreB := evalA.OverallScore, evalB.OverallScore

	var winner string
	var margin float64
	switch {
	case math.Abs(scoreA-scoreB) < 0.5:
		winner, margin = "tie", 0
	case scoreA > scoreB:
		winner, margin = "A", scoreA-scoreB
	default:
		winner, margin = "B", scoreB-scoreA
	}

	return Comparison{
		Winner:         winner,
		Margin:         margin,
		ScoreA:         scoreA,
		ScoreB:         scoreB,
		EvalA:          evalA,
		EvalB:          evalB,
		Recommendation: recommendation(winner, evalA, evalB),
	}, nil
}

func recommendation(winner string, evalA, evalB JudgeEvaluation) string {
	switch winner {
	case "tie":
		return "Both outputs are similar in quality. Consider other factors."
	case "A":
		return fmt.Sprintf("Output A is stronger. Key advantages: %s", topStrengths(evalA))
	default:
		return fmt.Sprintf("Output B is stronger. Key advantages: %s", topStrengths(evalB))
	}
}

func topStrengths(eval JudgeEvaluation) string {
	strengths := eval.Strengths
	if len(strengths) > 2 {
		strengths = strengths[:2]
	}
	return strings.Join(strengths, ", ")
}
