package registry

import (
	"errors"
	"sync"
	"testing"

	"resumeiq/internal/config"
	"resumeiq/internal/types"
)

func testRegistry() *PromptRegistry {
	return NewPromptRegistry(config.DefaultPolicyConfig())
}

func scoredVersion(name, version string, quality, safety float64) PromptVersion {
	p := NewPromptVersion(name, version, "You are a helpful assistant.", "Input: {input}", []string{"input"})
	p.QualityScore = quality
	p.SafetyScore = safety
	return p
}

func TestRegisterAndGet(t *testing.T) {
	r := testRegistry()
	p := NewPromptVersion("greeter", "1.0.0", "system", "user {input}", []string{"input"})
	if err := r.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok := r.Get("greeter", "1.0.0")
	if !ok {
		t.Fatal("registered version not found")
	}
	if got.ContentHash != p.ContentHash {
		t.Fatalf("hash = %s, want %s", got.ContentHash, p.ContentHash)
	}
	if got.Status != StatusDraft {
		t.Fatalf("status = %s, want draft", got.Status)
	}
}

func TestRegisterDuplicateVersionRejected(t *testing.T) {
	r := testRegistry()
	p := NewPromptVersion("greeter", "1.0.0", "system", "user", nil)
	if err := r.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	p2 := NewPromptVersion("greeter", "1.0.0", "different system", "different user", nil)
	err := r.Register(p2)
	if !errors.Is(err, types.ErrConcurrentModification) {
		t.Fatalf("duplicate register error = %v, want concurrent modification", err)
	}
	var cme *types.ConcurrentModificationError
	if !errors.As(err, &cme) || cme.ID != "greeter@1.0.0" {
		t.Fatalf("conflict id = %v, want greeter@1.0.0", err)
	}

	// The original content must be untouched.
	got, _ := r.Get("greeter", "1.0.0")
	if got.SystemPrompt != "system" {
		t.Fatalf("registered content was overwritten: %q", got.SystemPrompt)
	}
}

func TestPromoteGates(t *testing.T) {
	cases := []struct {
		name     string
		quality  float64
		safety   float64
		wantGate string
	}{
		{"quality too low", 0.65, 0.95, "quality"},
		{"safety too low", 0.85, 0.85, "safety"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := testRegistry()
			if err := r.Register(scoredVersion("p", "1.0.0", tc.quality, tc.safety)); err != nil {
				t.Fatalf("Register failed: %v", err)
			}
			err := r.Promote("p", "1.0.0")
			var tnm *types.ThresholdNotMet
			if !errors.As(err, &tnm) {
				t.Fatalf("Promote error = %v, want ThresholdNotMet", err)
			}
			if tnm.Gate != tc.wantGate {
				t.Fatalf("gate = %s, want %s", tnm.Gate, tc.wantGate)
			}
		})
	}
}

func TestPromoteUnscoredVersionAllowed(t *testing.T) {
	r := testRegistry()
	if err := r.Register(NewPromptVersion("p", "1.0.0", "s", "u", nil)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Promote("p", "1.0.0"); err != nil {
		t.Fatalf("Promote of unscored version failed: %v", err)
	}
	prod, ok := r.Production("p")
	if !ok || prod.Version != "1.0.0" {
		t.Fatalf("production = %+v, want 1.0.0", prod)
	}
	if prod.PromotedAt.IsZero() {
		t.Fatal("PromotedAt not set")
	}
}

func TestPromoteDeprecatesPrevious(t *testing.T) {
	r := testRegistry()
	for _, v := range []string{"1.0.0", "1.1.0"} {
		if err := r.Register(scoredVersion("p", v, 0.85, 0.95)); err != nil {
			t.Fatalf("Register %s failed: %v", v, err)
		}
	}
	if err := r.Promote("p", "1.0.0"); err != nil {
		t.Fatalf("Promote 1.0.0 failed: %v", err)
	}
	if err := r.Promote("p", "1.1.0"); err != nil {
		t.Fatalf("Promote 1.1.0 failed: %v", err)
	}

	old, _ := r.Get("p", "1.0.0")
	if old.Status != StatusDeprecated {
		t.Fatalf("old status = %s, want deprecated", old.Status)
	}
	prod, _ := r.Production("p")
	if prod.Version != "1.1.0" {
		t.Fatalf("production = %s, want 1.1.0", prod.Version)
	}
}

func TestRollbackToPrevious(t *testing.T) {
	r := testRegistry()
	for _, v := range []string{"1.0.0", "1.1.0"} {
		if err := r.Register(scoredVersion("p", v, 0.85, 0.95)); err != nil {
			t.Fatalf("Register %s failed: %v", v, err)
		}
	}
	if err := r.Promote("p", "1.0.0"); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if err := r.Promote("p", "1.1.0"); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	version, err := r.Rollback("p", "")
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if version != "1.0.0" {
		t.Fatalf("rolled back to %s, want 1.0.0", version)
	}

	prod, _ := r.Production("p")
	if prod.Version != "1.0.0" || prod.Status != StatusProduction {
		t.Fatalf("production = %s/%s, want 1.0.0/production", prod.Version, prod.Status)
	}
	rolled, _ := r.Get("p", "1.1.0")
	if rolled.Status != StatusRolledBack {
		t.Fatalf("status = %s, want rolled_back", rolled.Status)
	}
}

func TestRollbackWithoutPredecessor(t *testing.T) {
	r := testRegistry()
	if err := r.Register(scoredVersion("p", "1.0.0", 0.85, 0.95)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Promote("p", "1.0.0"); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if _, err := r.Rollback("p", ""); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("Rollback error = %v, want validation error", err)
	}
}

func TestAuditHistoryRecordsLifecycle(t *testing.T) {
	r := testRegistry()
	for _, v := range []string{"1.0.0", "1.1.0"} {
		if err := r.Register(scoredVersion("p", v, 0.85, 0.95)); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	r.Promote("p", "1.0.0")
	r.Promote("p", "1.1.0")
	r.Rollback("p", "")

	events := r.History("p")
	wantActions := []string{"register", "register", "promote", "promote", "rollback"}
	if len(events) != len(wantActions) {
		t.Fatalf("event count = %d, want %d", len(events), len(wantActions))
	}
	for i, want := range wantActions {
		if events[i].Action != want {
			t.Fatalf("event %d = %s, want %s", i, events[i].Action, want)
		}
	}
}

func TestRenderMissingVariable(t *testing.T) {
	p := NewPromptVersion("p", "1.0.0", "system", "Improve: {original_bullet}", []string{"original_bullet"})
	_, _, err := p.Render(map[string]string{})
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("Render error = %v, want validation error", err)
	}

	system, user, err := p.Render(map[string]string{"original_bullet": "did stuff"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if user != "Improve: did stuff" {
		t.Fatalf("user = %q", user)
	}
	if system != "system" {
		t.Fatalf("system = %q", system)
	}
}

func TestVerifyIntegrity(t *testing.T) {
	p := NewPromptVersion("p", "1.0.0", "system", "user", nil)
	if !p.VerifyIntegrity() {
		t.Fatal("fresh version should verify")
	}
	p.SystemPrompt = "tampered"
	if p.VerifyIntegrity() {
		t.Fatal("tampered version should not verify")
	}
}

func TestConcurrentRegistrationsDistinctNames(t *testing.T) {
	r := testRegistry()
	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i%10))
			version := "1.0.0"
			if i >= 10 {
				version = "1.1.0"
			}
			errs[i] = r.Register(NewPromptVersion(name, version, "s", "u", nil))
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	// Same-name registrations may collide on the in-flight lock; distinct
	// (name, version) pairs must never be silently lost.
	total := 0
	for _, name := range r.Names() {
		total += len(r.ListVersions(name))
	}
	if total+failed != 20 {
		t.Fatalf("stored %d + rejected %d != 20 attempts", total, failed)
	}
}

func TestSeedProductionPrompts(t *testing.T) {
	r := testRegistry()
	if err := SeedProductionPrompts(r); err != nil {
		t.Fatalf("SeedProductionPrompts failed: %v", err)
	}

	names := []string{
		"bullet_improver", "summary_generator", "skill_gap_analyzer",
		"ats_optimizer", "career_transition_advisor", "feedback_explainer",
	}
	for _, name := range names {
		prod, ok := r.Production(name)
		if !ok {
			t.Errorf("seed %s has no production version", name)
			continue
		}
		if prod.Version != "1.0.0" {
			t.Errorf("%s version = %s, want 1.0.0", name, prod.Version)
		}
		if !prod.HasScores() {
			t.Errorf("%s missing evaluation scores", name)
		}
		if !prod.VerifyIntegrity() {
			t.Errorf("%s failed integrity check", name)
		}
	}

	career, _ := r.Production("career_transition_advisor")
	if career.MinModelTier != TierPremium {
		t.Fatalf("career advisor tier = %s, want premium", career.MinModelTier)
	}
}
