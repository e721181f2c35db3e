package interpret

import (
	"strings"
	"testing"

	"resumeiq/internal/signal"
)

func makeSignal(t signal.Type, sev signal.Severity, value interface{}) signal.Signal {
	return signal.Signal{
		ID:       "sig-" + string(t) + "-" + string(sev),
		Type:     t,
		Severity: sev,
		Value:    value,
	}
}

func TestTemplateRendering(t *testing.T) {
	sig := makeSignal(signal.TypeSectionMissing, signal.SeverityCritical, "skills")
	out := NewEngine().Interpret([]signal.Signal{sig})

	if len(out) != 1 {
		t.Fatalf("interpretation count = %d, want 1", len(out))
	}
	interp := out[0]
	if interp.Explanation != "Your resume is missing skills, which is essential for ATS systems and recruiters." {
		t.Fatalf("explanation = %q", interp.Explanation)
	}
	if interp.Tone != ToneDirect {
		t.Fatalf("tone = %s, want direct", interp.Tone)
	}
	if interp.Priority != 100 {
		t.Fatalf("priority = %d, want 100", interp.Priority)
	}
	if interp.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", interp.Confidence)
	}
	if len(interp.SourceSignalIDs) != 1 || interp.SourceSignalIDs[0] != sig.ID {
		t.Fatalf("source signals = %v, want [%s]", interp.SourceSignalIDs, sig.ID)
	}
}

func TestPercentagePlaceholder(t *testing.T) {
	sig := makeSignal(signal.TypeBulletHasMetric, signal.SeverityHigh, false)
	sig.Context = map[string]interface{}{"percentage": 12.6}

	out := NewEngine().Interpret([]signal.Signal{sig})
	if len(out) != 1 {
		t.Fatalf("interpretation count = %d, want 1", len(out))
	}
	if !strings.Contains(out[0].Explanation, "13%") {
		t.Fatalf("explanation %q should contain rounded percentage", out[0].Explanation)
	}
}

func TestFallbackEchoesDescription(t *testing.T) {
	sig := makeSignal(signal.TypeSpecialChars, signal.SeverityLow, 60)
	sig.Description = "60 non-ASCII characters detected"

	out := NewEngine().Interpret([]signal.Signal{sig})
	if len(out) != 1 {
		t.Fatalf("interpretation count = %d, want 1", len(out))
	}
	if out[0].Explanation != sig.Description {
		t.Fatalf("explanation = %q, want signal description", out[0].Explanation)
	}
	if out[0].Confidence != 0.9 {
		t.Fatalf("fallback confidence = %v, want 0.9", out[0].Confidence)
	}
}

func TestSkillGrouping(t *testing.T) {
	signals := []signal.Signal{
		makeSignal(signal.TypeSkillMatch, signal.SeverityInfo, "Go"),
		{ID: "m2", Type: signal.TypeSkillMatch, Severity: signal.SeverityInfo, Value: "Python"},
		makeSignal(signal.TypeSkillMissing, signal.SeverityHigh, "Rust"),
		{ID: "x2", Type: signal.TypeSkillMissing, Severity: signal.SeverityHigh, Value: "Kafka"},
		{ID: "x3", Type: signal.TypeSkillMissing, Severity: signal.SeverityHigh, Value: "Spark"},
	}

	out := NewEngine().Interpret(signals)
	if len(out) != 2 {
		t.Fatalf("interpretation count = %d, want 2 (matches + misses combined)", len(out))
	}

	// Sorted by priority: missing summary (75) before match summary (60).
	if out[0].Priority != 75 || out[1].Priority != 60 {
		t.Fatalf("priorities = %d, %d, want 75, 60", out[0].Priority, out[1].Priority)
	}
	if !strings.Contains(out[0].Explanation, "3 required skills are missing") {
		t.Fatalf("missing summary = %q", out[0].Explanation)
	}
	if out[0].Tone != ToneDirect {
		t.Fatalf("missing summary tone = %s, want direct", out[0].Tone)
	}
	if !strings.Contains(out[1].Explanation, "matches 2 required skills") {
		t.Fatalf("match summary = %q", out[1].Explanation)
	}
	if out[1].Tone != ToneCelebratory {
		t.Fatalf("match summary tone = %s, want celebratory", out[1].Tone)
	}
	if len(out[0].SourceSignalIDs) != 3 {
		t.Fatalf("missing summary cites %d signals, want 3", len(out[0].SourceSignalIDs))
	}
}

func TestSkillListCapped(t *testing.T) {
	var signals []signal.Signal
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, n := range names {
		signals = append(signals, signal.Signal{
			ID: "miss-" + n, Type: signal.TypeSkillMissing,
			Severity: signal.SeverityHigh, Value: n,
		})
	}

	out := NewEngine().Interpret(signals)
	if len(out) != 1 {
		t.Fatalf("interpretation count = %d, want 1", len(out))
	}
	if !strings.HasSuffix(out[0].Explanation, "...") {
		t.Fatalf("capped list should end with ellipsis: %q", out[0].Explanation)
	}
}

func TestPrioritySorting(t *testing.T) {
	signals := []signal.Signal{
		makeSignal(signal.TypeBulletHasActionVerb, signal.SeverityLow, false),     // 30
		makeSignal(signal.TypeEmailMissing, signal.SeverityCritical, true),        // 100
		makeSignal(signal.TypeFormatIssue, signal.SeverityMedium, "table_chars"),  // 60
	}

	out := NewEngine().Interpret(signals)
	if len(out) != 3 {
		t.Fatalf("interpretation count = %d, want 3", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Priority < out[i].Priority {
			t.Fatalf("interpretations not sorted by priority: %d before %d",
				out[i-1].Priority, out[i].Priority)
		}
	}
	if out[0].Priority != 100 {
		t.Fatalf("top priority = %d, want 100", out[0].Priority)
	}
}
