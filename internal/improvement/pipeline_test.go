package improvement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"resumeiq/internal/config"
	"resumeiq/internal/evaluation"
	"resumeiq/internal/registry"
)

// Canned outputs with known evaluation profiles.
const (
	// Hedged, well-formed, no fabricated numbers: the strongest output.
	strongOutput = "Consider adding measurable outcomes to your experience section. " +
		"You might quantify the impact of your work, and it may help recruiters " +
		"see your scope. This could strengthen the summary as well."

	// Short and overconfident: two warnings drag the score down.
	mediocreOutput = "You must always lead with metrics."

	// Forbidden phrase: the safety validator fails it outright.
	unsafeOutput = "This resume is guaranteed to work."

	// Hedged but sprinkled with numbers absent from the input.
	fabricatedOutput = "Consider adding 17 new metrics, perhaps 23 examples across 31 bullets " +
		"and 47 sections, as these may help recruiters scan your work quickly and could clarify scope."
)

func fixedRunner(current, proposed string) VersionRunner {
	return VersionRunnerFunc(func(_ context.Context, _, _, version string, _ FrozenTestCase) (string, error) {
		if version == "proposed" {
			return proposed, nil
		}
		return current, nil
	})
}

func smallCorpus(inputs ...string) *Corpus {
	corpus := NewCorpus()
	for _, in := range inputs {
		corpus.Add(NewFrozenTestCase(in, "bullets"))
	}
	return corpus
}

func TestRunCyclePromotesClearImprovement(t *testing.T) {
	corpus := smallCorpus("Responsible for managing things", "Worked on projects as assigned")
	p := NewPipeline(corpus, fixedRunner(mediocreOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig())

	cand := NewCandidate("cand-1", "prompt", "bullet_improver", "current", "proposed", "stronger hedging")
	cycle, err := p.RunCycle(context.Background(), []Candidate{cand}, 2)
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if cycle.PromotedCount != 1 || cycle.RejectedCount != 0 {
		t.Fatalf("cycle = %d promoted / %d rejected, want 1/0", cycle.PromotedCount, cycle.RejectedCount)
	}
	if cycle.AverageImprovement <= 0 {
		t.Fatalf("average improvement = %v, want positive", cycle.AverageImprovement)
	}

	stored, ok := p.Candidate("cand-1")
	if !ok {
		t.Fatal("candidate not stored after cycle")
	}
	if stored.Status != StatusPromoted {
		t.Fatalf("status = %s, want promoted: %s", stored.Status, stored.DecisionReason)
	}
	if stored.DecisionReason != "Passed all thresholds" {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
	if stored.TestCaseCount != 2 || stored.Wins != 2 || stored.Losses != 0 {
		t.Fatalf("counts = %d/%d/%d, want 2 cases, 2 wins, 0 losses",
			stored.TestCaseCount, stored.Wins, stored.Losses)
	}
	if stored.CandidateScore <= stored.BaselineScore {
		t.Fatalf("scores = %v vs %v", stored.CandidateScore, stored.BaselineScore)
	}
}

func TestRunCycleRejectsNoImprovement(t *testing.T) {
	corpus := smallCorpus("Responsible for managing things")
	p := NewPipeline(corpus, fixedRunner(strongOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig())

	cand := NewCandidate("cand-2", "prompt", "bullet_improver", "current", "proposed", "no-op change")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 1); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, _ := p.Candidate("cand-2")
	if stored.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", stored.Status)
	}
	if !strings.HasPrefix(stored.DecisionReason, "Insufficient improvement:") {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
}

func TestRunCycleRejectsLowQuality(t *testing.T) {
	policy := config.DefaultPolicyConfig()
	policy.QualityThreshold = 0.9

	corpus := smallCorpus("Responsible for managing things")
	p := NewPipeline(corpus, fixedRunner(unsafeOutput, mediocreOutput),
		evaluation.NewEngine(), policy)

	cand := NewCandidate("cand-3", "prompt", "bullet_improver", "current", "proposed", "drops the guarantee")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 1); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, _ := p.Candidate("cand-3")
	if stored.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", stored.Status)
	}
	if !strings.HasPrefix(stored.DecisionReason, "Quality below threshold:") {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
}

func TestRunCycleRejectsRegressions(t *testing.T) {
	winInput := "Responsible for managing things"
	corpus := smallCorpus(winInput, "Worked on projects as assigned", "Handled support tickets daily")
	winID := caseID(winInput)

	runner := VersionRunnerFunc(func(_ context.Context, _, _, version string, tc FrozenTestCase) (string, error) {
		if version == "proposed" {
			if tc.CaseID == winID {
				return strongOutput, nil
			}
			return fabricatedOutput, nil
		}
		if tc.CaseID == winID {
			return unsafeOutput, nil
		}
		return strongOutput, nil
	})

	p := NewPipeline(corpus, runner, evaluation.NewEngine(), config.DefaultPolicyConfig())
	cand := NewCandidate("cand-4", "prompt", "bullet_improver", "current", "proposed", "wins big, loses often")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 3); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, _ := p.Candidate("cand-4")
	if stored.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected: %s", stored.Status, stored.DecisionReason)
	}
	if stored.DecisionReason != "Too many regressions: 2 of 3" {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
	if stored.Wins != 1 || stored.Losses != 2 {
		t.Fatalf("wins/losses = %d/%d, want 1/2", stored.Wins, stored.Losses)
	}
}

func TestRunCycleToleratesMinorityCaseFailures(t *testing.T) {
	failInput := "Handled support tickets daily"
	corpus := smallCorpus("Responsible for managing things", "Worked on projects as assigned", failInput)
	failID := caseID(failInput)

	runner := VersionRunnerFunc(func(_ context.Context, _, _, version string, tc FrozenTestCase) (string, error) {
		if tc.CaseID == failID {
			return "", errors.New("provider timeout")
		}
		if version == "proposed" {
			return strongOutput, nil
		}
		return mediocreOutput, nil
	})

	p := NewPipeline(corpus, runner, evaluation.NewEngine(), config.DefaultPolicyConfig())
	cand := NewCandidate("cand-7", "prompt", "bullet_improver", "current", "proposed", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 3); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, _ := p.Candidate("cand-7")
	if stored.Status != StatusPromoted {
		t.Fatalf("status = %s, want promoted: %s", stored.Status, stored.DecisionReason)
	}
	if stored.TestCaseCount != 2 || stored.Wins != 2 || stored.Losses != 0 {
		t.Fatalf("counts = %d/%d/%d, want 2 cases, 2 wins, 0 losses",
			stored.TestCaseCount, stored.Wins, stored.Losses)
	}
}

func TestRunCycleFailsWhenMostCasesFail(t *testing.T) {
	okInput := "Responsible for managing things"
	corpus := smallCorpus(okInput, "Worked on projects as assigned", "Handled support tickets daily")
	okID := caseID(okInput)

	runner := VersionRunnerFunc(func(_ context.Context, _, _, version string, tc FrozenTestCase) (string, error) {
		if tc.CaseID != okID {
			return "", errors.New("provider timeout")
		}
		if version == "proposed" {
			return strongOutput, nil
		}
		return mediocreOutput, nil
	})

	p := NewPipeline(corpus, runner, evaluation.NewEngine(), config.DefaultPolicyConfig())
	cand := NewCandidate("cand-8", "prompt", "bullet_improver", "current", "proposed", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 3); err == nil {
		t.Fatal("expected error when most cases fail to score")
	}
}

func TestRunCycleEmptyCorpus(t *testing.T) {
	p := NewPipeline(NewCorpus(), fixedRunner(strongOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig())

	cand := NewCandidate("cand-5", "prompt", "bullet_improver", "current", "proposed", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 5); err == nil {
		t.Fatal("expected error with no test cases")
	}
}

// promptRegistryWithVersions builds a registry with "current" in
// production and "proposed" registered for bullet_improver.
func promptRegistryWithVersions(t *testing.T, proposedQuality, proposedSafety float64) *registry.PromptRegistry {
	t.Helper()
	reg := registry.NewPromptRegistry(config.DefaultPolicyConfig())

	current := registry.NewPromptVersion("bullet_improver", "current", "s", "Improve: {original_bullet}", nil)
	if err := reg.Register(current); err != nil {
		t.Fatalf("Register current failed: %v", err)
	}
	if err := reg.Promote("bullet_improver", "current"); err != nil {
		t.Fatalf("Promote current failed: %v", err)
	}

	proposed := registry.NewPromptVersion("bullet_improver", "proposed", "s2", "Rewrite: {original_bullet}", nil)
	proposed.QualityScore = proposedQuality
	proposed.SafetyScore = proposedSafety
	if err := reg.Register(proposed); err != nil {
		t.Fatalf("Register proposed failed: %v", err)
	}
	return reg
}

func TestPromotionReachesRegistry(t *testing.T) {
	reg := promptRegistryWithVersions(t, 0.85, 0.95)
	corpus := smallCorpus("Responsible for managing things", "Worked on projects as assigned")
	p := NewPipeline(corpus, fixedRunner(mediocreOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig()).WithRegistry(reg)

	cand := NewCandidate("cand-reg", "prompt", "bullet_improver", "current", "proposed", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 2); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, _ := p.Candidate("cand-reg")
	if stored.Status != StatusPromoted {
		t.Fatalf("status = %s, want promoted: %s", stored.Status, stored.DecisionReason)
	}
	prod, ok := reg.Production("bullet_improver")
	if !ok || prod.Version != "proposed" {
		t.Fatalf("registry production = %+v, want proposed", prod)
	}
	old, _ := reg.Get("bullet_improver", "current")
	if old.Status != registry.StatusDeprecated {
		t.Fatalf("previous production status = %s, want deprecated", old.Status)
	}
}

func TestRegistryGateBlocksPromotion(t *testing.T) {
	// The candidate beats its baseline on the corpus, but the registered
	// version carries a quality score below the promotion gate.
	reg := promptRegistryWithVersions(t, 0.55, 0.95)
	corpus := smallCorpus("Responsible for managing things", "Worked on projects as assigned")
	p := NewPipeline(corpus, fixedRunner(mediocreOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig()).WithRegistry(reg)

	cand := NewCandidate("cand-gated", "prompt", "bullet_improver", "current", "proposed", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 2); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, _ := p.Candidate("cand-gated")
	if stored.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", stored.Status)
	}
	if !strings.HasPrefix(stored.DecisionReason, "Registry promotion failed:") {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
	prod, _ := reg.Production("bullet_improver")
	if prod.Version != "current" {
		t.Fatalf("registry production = %s, want current untouched", prod.Version)
	}
}

func TestRollbackOnlyFromPromoted(t *testing.T) {
	corpus := smallCorpus("Responsible for managing things", "Worked on projects as assigned")
	p := NewPipeline(corpus, fixedRunner(mediocreOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig())

	promoted := NewCandidate("good", "prompt", "bullet_improver", "current", "proposed", "")
	rejected := NewCandidate("noop", "prompt", "bullet_improver", "current", "current", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{promoted, rejected}, 2); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if p.Rollback("noop", "should not work") {
		t.Fatal("rejected candidate must not be rollbackable")
	}
	if p.Rollback("missing", "no such candidate") {
		t.Fatal("unknown candidate must not be rollbackable")
	}

	if !p.Rollback("good", "live regression reports") {
		t.Fatal("promoted candidate should roll back")
	}
	stored, _ := p.Candidate("good")
	if stored.Status != StatusRolledBack {
		t.Fatalf("status = %s, want rolled_back", stored.Status)
	}
	if stored.DecisionReason != "Rolled back: live regression reports" {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}

	if p.Rollback("good", "again") {
		t.Fatal("rollback must not apply twice")
	}
}

func TestAuditTrailAndCycles(t *testing.T) {
	corpus := smallCorpus("Responsible for managing things")
	p := NewPipeline(corpus, fixedRunner(mediocreOutput, strongOutput),
		evaluation.NewEngine(), config.DefaultPolicyConfig())

	cand := NewCandidate("cand-6", "prompt", "bullet_improver", "current", "proposed", "")
	if _, err := p.RunCycle(context.Background(), []Candidate{cand}, 1); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if len(p.Cycles()) != 1 {
		t.Fatalf("cycle count = %d, want 1", len(p.Cycles()))
	}

	trail := p.AuditTrail(time.Time{})
	actions := make(map[string]int)
	for _, e := range trail {
		actions[e.Action]++
	}
	if actions["decide"] != 1 || actions["complete_cycle"] != 1 {
		t.Fatalf("audit actions = %v", actions)
	}
}
