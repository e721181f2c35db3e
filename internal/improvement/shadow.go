package improvement

import (
	"context"
	"sync"
	"time"

	"resumeiq/internal/evaluation"
	"resumeiq/internal/logging"
	"resumeiq/internal/store"
)

// ShadowComparison is the scored outcome of one shadow run.
type ShadowComparison struct {
	ProductionScore   float64 `json:"production_score"`
	ShadowScore       float64 `json:"shadow_score"`
	ShadowImprovement float64 `json:"shadow_improvement"`
	ShadowBetter      bool    `json:"shadow_better"`
}

// ShadowResult is what a shadow run returns to the caller: the
// production output plus the comparison. The shadow output never
// reaches the user.
type ShadowResult struct {
	ProductionOutput string           `json:"production_output"`
	Comparison       ShadowComparison `json:"shadow_comparison"`
}

// ShadowVersionRunner produces one version's output for an input.
type ShadowVersionRunner func(ctx context.Context, version, input string) (string, error)

// ShadowRunner runs a candidate version alongside production, comparing
// outputs without affecting what the user sees.
type ShadowRunner struct {
	run  ShadowVersionRunner
	eval *evaluation.Engine
	sink *store.Store

	mu      sync.Mutex
	results []ShadowComparison

	log *logging.Logger
}

// NewShadowRunner builds a shadow runner. The sink is optional.
func NewShadowRunner(run ShadowVersionRunner, eval *evaluation.Engine) *ShadowRunner {
	return &ShadowRunner{
		run:  run,
		eval: eval,
		log:  logging.Get(logging.CategoryShadow),
	}
}

// WithStore records shadow runs durably.
func (r *ShadowRunner) WithStore(s *store.Store) *ShadowRunner {
	r.sink = s
	return r
}

// Run executes both versions and returns the production output. A shadow
// failure is logged, never surfaced: production output still returns.
func (r *ShadowRunner) Run(ctx context.Context, productionVersion, shadowVersion, input string) (ShadowResult, error) {
	productionOutput, err := r.run(ctx, productionVersion, input)
	if err != nil {
		return ShadowResult{}, err
	}

	shadowOutput, err := r.run(ctx, shadowVersion, input)
	if err != nil {
		r.log.Warn("shadow version %s failed: %v", shadowVersion, err)
		return ShadowResult{ProductionOutput: productionOutput}, nil
	}

	comparison := r.compare(productionOutput, shadowOutput, input)

	r.mu.Lock()
	r.results = append(r.results, comparison)
	r.mu.Unlock()

	if r.sink != nil {
		err := r.sink.RecordShadowRun(store.ShadowRun{
			InputHash:       inputHashForShadow(input),
			ProductionScore: comparison.ProductionScore,
			ShadowScore:     comparison.ShadowScore,
			Improvement:     comparison.ShadowImprovement,
			ShadowBetter:    comparison.ShadowBetter,
			CreatedAt:       time.Now().UTC(),
		})
		if err != nil {
			r.log.Warn("failed to record shadow run: %v", err)
		}
	}

	return ShadowResult{ProductionOutput: productionOutput, Comparison: comparison}, nil
}

func (r *ShadowRunner) compare(production, shadow, input string) ShadowComparison {
	prodReport := r.eval.Evaluate(production, evaluation.Context{OriginalContent: input})
	shadowReport := r.eval.Evaluate(shadow, evaluation.Context{OriginalContent: input})

	return ShadowComparison{
		ProductionScore:   prodReport.OverallScore,
		ShadowScore:       shadowReport.OverallScore,
		ShadowImprovement: shadowReport.OverallScore - prodReport.OverallScore,
		ShadowBetter:      shadowReport.OverallScore > prodReport.OverallScore,
	}
}

// Stats aggregates the in-memory shadow history.
func (r *ShadowRunner) Stats() store.ShadowStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := store.ShadowStats{Runs: len(r.results)}
	if stats.Runs == 0 {
		return stats
	}

	var improvementSum float64
	for _, c := range r.results {
		if c.ShadowBetter {
			stats.ShadowWins++
		}
		improvementSum += c.ShadowImprovement
	}
	stats.WinRate = float64(stats.ShadowWins) / float64(stats.Runs)
	stats.AverageImprovement = improvementSum / float64(stats.Runs)
	return stats
}

func inputHashForShadow(input string) string {
	return caseID(input)
}
