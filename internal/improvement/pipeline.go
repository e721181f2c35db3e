package improvement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"resumeiq/internal/config"
	"resumeiq/internal/evaluation"
	"resumeiq/internal/logging"
)

// Status is the lifecycle state of an improvement candidate.
type Status string

const (
	StatusPending    Status = "pending"
	StatusEvaluating Status = "evaluating"
	StatusPromoted   Status = "promoted"
	StatusRejected   Status = "rejected"
	StatusRolledBack Status = "rolled_back"
)

// Candidate is one proposed change to a prompt, model, or config.
type Candidate struct {
	CandidateID string `json:"candidate_id"`

	ImprovementType string `json:"improvement_type"` // prompt, model, config
	TargetID        string `json:"target_id"`

	CurrentVersion    string `json:"current_version"`
	ProposedVersion   string `json:"proposed_version"`
	ChangeDescription string `json:"change_description"`

	Status Status `json:"status"`

	// Scores are negative until evaluation completes.
	BaselineScore    float64 `json:"baseline_score"`
	CandidateScore   float64 `json:"candidate_score"`
	ImprovementDelta float64 `json:"improvement_delta"`

	TestCaseCount int `json:"test_case_count"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`

	CreatedAt      time.Time `json:"created_at"`
	EvaluatedAt    time.Time `json:"evaluated_at,omitempty"`
	DecisionReason string    `json:"decision_reason,omitempty"`
}

// NewCandidate builds a pending candidate.
func NewCandidate(candidateID, improvementType, targetID, currentVersion, proposedVersion, description string) Candidate {
	return Candidate{
		CandidateID:       candidateID,
		ImprovementType:   improvementType,
		TargetID:          targetID,
		CurrentVersion:    currentVersion,
		ProposedVersion:   proposedVersion,
		ChangeDescription: description,
		Status:            StatusPending,
		BaselineScore:     -1,
		CandidateScore:    -1,
		ImprovementDelta:  0,
		CreatedAt:         time.Now().UTC(),
	}
}

// Cycle summarizes one improvement run over a candidate batch.
type Cycle struct {
	CycleID   string    `json:"cycle_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TestCases  []string `json:"test_cases"`
	Candidates []string `json:"candidates"`

	PromotedCount   int `json:"promoted_count"`
	RejectedCount   int `json:"rejected_count"`
	RolledBackCount int `json:"rolled_back_count"`

	AverageImprovement float64 `json:"average_improvement"`
}

// PromptPromoter is the slice of the prompt registry the pipeline needs
// to apply promotion decisions. The registry serializes promotions per
// prompt name; the pipeline never mutates version state directly.
type PromptPromoter interface {
	Promote(name, version string) error
}

// VersionRunner produces the output of a specific version for a test case.
type VersionRunner interface {
	RunVersion(ctx context.Context, improvementType, targetID, version string, tc FrozenTestCase) (string, error)
}

// VersionRunnerFunc adapts a function to the VersionRunner interface.
type VersionRunnerFunc func(ctx context.Context, improvementType, targetID, version string, tc FrozenTestCase) (string, error)

func (f VersionRunnerFunc) RunVersion(ctx context.Context, improvementType, targetID, version string, tc FrozenTestCase) (string, error) {
	return f(ctx, improvementType, targetID, version, tc)
}

// AuditEntry is one pipeline governance event.
type AuditEntry struct {
	Action    string    `json:"action"`
	TargetID  string    `json:"target_id"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline evaluates candidates against the frozen corpus and decides
// promotion.
type Pipeline struct {
	corpus *Corpus
	runner VersionRunner
	eval   *evaluation.Engine
	policy config.PolicyConfig

	// maxConcurrent bounds parallel test-case evaluations.
	maxConcurrent int

	// registry, when set, receives promotion decisions for prompt
	// candidates.
	registry PromptPromoter

	mu         sync.Mutex
	candidates map[string]*Candidate
	cycles     []Cycle
	audit      []AuditEntry

	log *logging.Logger
}

// NewPipeline builds an improvement pipeline.
func NewPipeline(corpus *Corpus, runner VersionRunner, eval *evaluation.Engine, policy config.PolicyConfig) *Pipeline {
	return &Pipeline{
		corpus:        corpus,
		runner:        runner,
		eval:          eval,
		policy:        policy,
		maxConcurrent: 4,
		candidates:    make(map[string]*Candidate),
		log:           logging.Get(logging.CategoryImprovement),
	}
}

// SetMaxConcurrent bounds parallel test-case evaluations.
func (p *Pipeline) SetMaxConcurrent(n int) {
	if n > 0 {
		p.maxConcurrent = n
	}
}

// WithRegistry attaches the prompt registry. Promoted prompt candidates
// are pushed to production through it.
func (p *Pipeline) WithRegistry(reg PromptPromoter) *Pipeline {
	p.registry = reg
	return p
}

// RunCycle evaluates a batch of candidates against a fresh sample of the
// corpus and records promotion decisions.
func (p *Pipeline) RunCycle(ctx context.Context, candidates []Candidate, testCaseCount int) (Cycle, error) {
	cycle := Cycle{
		CycleID:   "cycle_" + time.Now().UTC().Format("20060102_150405"),
		StartTime: time.Now().UTC(),
	}

	cases := p.corpus.Sample(testCaseCount, SampleFilter{})
	for _, tc := range cases {
		cycle.TestCases = append(cycle.TestCases, tc.CaseID)
	}

	var deltas []float64
	for i := range candidates {
		cand := &candidates[i]
		cycle.Candidates = append(cycle.Candidates, cand.CandidateID)

		if err := p.evaluateCandidate(ctx, cand, cases); err != nil {
			return cycle, err
		}

		if p.shouldPromote(cand) {
			if err := p.applyPromotion(cand); err != nil {
				cand.Status = StatusRejected
				cand.DecisionReason = "Registry promotion failed: " + err.Error()
				cycle.RejectedCount++
			} else {
				cand.Status = StatusPromoted
				cand.DecisionReason = "Passed all thresholds"
				cycle.PromotedCount++
			}
		} else {
			cand.Status = StatusRejected
			cand.DecisionReason = p.rejectionReason(cand)
			cycle.RejectedCount++
		}
		cand.EvaluatedAt = time.Now().UTC()
		deltas = append(deltas, cand.ImprovementDelta)

		p.mu.Lock()
		stored := *cand
		p.candidates[cand.CandidateID] = &stored
		p.mu.Unlock()

		p.logAudit("decide", cand.CandidateID, string(cand.Status)+": "+cand.DecisionReason)
	}

	if len(deltas) > 0 {
		var sum float64
		for _, d := range deltas {
			sum += d
		}
		cycle.AverageImprovement = sum / float64(len(deltas))
	}
	cycle.EndTime = time.Now().UTC()

	p.mu.Lock()
	p.cycles = append(p.cycles, cycle)
	p.mu.Unlock()

	p.logAudit("complete_cycle", cycle.CycleID,
		fmt.Sprintf("promoted=%d rejected=%d avg_improvement=%.4f",
			cycle.PromotedCount, cycle.RejectedCount, cycle.AverageImprovement))
	p.log.Info("cycle %s: %d promoted, %d rejected over %d cases",
		cycle.CycleID, cycle.PromotedCount, cycle.RejectedCount, len(cases))
	return cycle, nil
}

// evaluateCandidate scores baseline and proposed versions over the
// sampled cases, bounded-parallel per case.
func (p *Pipeline) evaluateCandidate(ctx context.Context, cand *Candidate, cases []FrozenTestCase) error {
	cand.Status = StatusEvaluating
	if len(cases) == 0 {
		return fmt.Errorf("no test cases available for candidate %s", cand.CandidateID)
	}

	baselineScores := make([]float64, len(cases))
	candidateScores := make([]float64, len(cases))
	scored := make([]bool, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i, tc := range cases {
		i, tc := i, tc
		g.Go(func() error {
			baseOut, err := p.runner.RunVersion(gctx, cand.ImprovementType, cand.TargetID, cand.CurrentVersion, tc)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.log.Warn("case %s skipped: %v", tc.CaseID, err)
				return nil
			}
			baselineScores[i] = p.scoreOutput(baseOut, tc)

			candOut, err := p.runner.RunVersion(gctx, cand.ImprovementType, cand.TargetID, cand.ProposedVersion, tc)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.log.Warn("case %s skipped: %v", tc.CaseID, err)
				return nil
			}
			candidateScores[i] = p.scoreOutput(candOut, tc)
			scored[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var baseSum, candSum float64
	count, wins, losses := 0, 0, 0
	for i := range cases {
		if !scored[i] {
			continue
		}
		count++
		baseSum += baselineScores[i]
		candSum += candidateScores[i]
		switch {
		case candidateScores[i] > baselineScores[i]:
			wins++
		case candidateScores[i] < baselineScores[i]:
			losses++
		}
	}

	// A run where most cases failed cannot support a promotion decision.
	if count*2 < len(cases) {
		return fmt.Errorf("only %d of %d test cases scored for candidate %s",
			count, len(cases), cand.CandidateID)
	}

	n := float64(count)
	cand.BaselineScore = baseSum / n
	cand.CandidateScore = candSum / n
	cand.ImprovementDelta = cand.CandidateScore - cand.BaselineScore
	cand.TestCaseCount = count
	cand.Wins = wins
	cand.Losses = losses
	return nil
}

// applyPromotion pushes a passing prompt candidate to production through
// the registry. Registry gates (scores, per-name serialization) still
// apply; a registry refusal turns the decision into a rejection.
func (p *Pipeline) applyPromotion(cand *Candidate) error {
	if p.registry == nil || cand.ImprovementType != "prompt" {
		return nil
	}
	return p.registry.Promote(cand.TargetID, cand.ProposedVersion)
}

func (p *Pipeline) scoreOutput(output string, tc FrozenTestCase) float64 {
	if p.eval == nil {
		return 0.7
	}
	report := p.eval.Evaluate(output, evaluation.Context{OriginalContent: tc.InputContent})
	return report.OverallScore
}

// shouldPromote applies the promotion policy: meaningful improvement,
// quality above the floor, and a bounded regression rate.
func (p *Pipeline) shouldPromote(cand *Candidate) bool {
	if cand.CandidateScore < 0 || cand.BaselineScore < 0 {
		return false
	}
	if cand.ImprovementDelta < p.policy.MinImprovement {
		return false
	}
	if cand.CandidateScore < p.policy.QualityThreshold {
		return false
	}
	if float64(cand.Losses) > float64(cand.TestCaseCount)*p.policy.MaxRegressionRate {
		return false
	}
	return true
}

func (p *Pipeline) rejectionReason(cand *Candidate) string {
	if cand.CandidateScore < 0 || cand.BaselineScore < 0 {
		return "Evaluation incomplete"
	}
	if cand.ImprovementDelta < p.policy.MinImprovement {
		return fmt.Sprintf("Insufficient improvement: %.2f%% (need %.0f%%)",
			cand.ImprovementDelta*100, p.policy.MinImprovement*100)
	}
	if cand.CandidateScore < p.policy.QualityThreshold {
		return fmt.Sprintf("Quality below threshold: %.2f (need %.2f)",
			cand.CandidateScore, p.policy.QualityThreshold)
	}
	if float64(cand.Losses) > float64(cand.TestCaseCount)*p.policy.MaxRegressionRate {
		return fmt.Sprintf("Too many regressions: %d of %d", cand.Losses, cand.TestCaseCount)
	}
	return "Unknown reason"
}

// Rollback reverts a promoted candidate. Only promoted candidates can be
// rolled back.
func (p *Pipeline) Rollback(candidateID, reason string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cand, ok := p.candidates[candidateID]
	if !ok || cand.Status != StatusPromoted {
		return false
	}
	cand.Status = StatusRolledBack
	cand.DecisionReason = "Rolled back: " + reason

	p.auditLocked("rollback", candidateID, reason)
	p.log.Info("rolled back candidate %s: %s", candidateID, reason)
	return true
}

// Candidate returns a stored candidate by id.
func (p *Pipeline) Candidate(candidateID string) (Candidate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cand, ok := p.candidates[candidateID]
	if !ok {
		return Candidate{}, false
	}
	return *cand, true
}

// Cycles returns all completed cycles.
func (p *Pipeline) Cycles() []Cycle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Cycle, len(p.cycles))
	copy(out, p.cycles)
	return out
}

// AuditTrail returns events at or after the given time. The zero time
// returns everything.
func (p *Pipeline) AuditTrail(since time.Time) []AuditEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AuditEntry
	for _, e := range p.audit {
		if since.IsZero() || !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

func (p *Pipeline) logAudit(action, targetID, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.auditLocked(action, targetID, detail)
}

func (p *Pipeline) auditLocked(action, targetID, detail string) {
	p.audit = append(p.audit, AuditEntry{
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
