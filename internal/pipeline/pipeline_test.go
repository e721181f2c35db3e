package pipeline

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"resumeiq/internal/judgment"
	"resumeiq/internal/schema"
	"resumeiq/internal/signal"
)

func cleanResume() *schema.ResumeData {
	return &schema.ResumeData{
		PersonalInfo: &schema.PersonalInfo{
			Name:  "Jordan Smith",
			Email: "jordan@example.com",
			Phone: "555-0100",
		},
		Summary: "Backend engineer with 8 years of experience.",
		Experience: []schema.Experience{
			{
				Title: "Senior Engineer", Company: "Acme", StartDate: "2020-03", EndDate: "present",
				Bullets: []string{
					"Led migration of billing platform serving 2 million users to a new stack",
					"Reduced deploy time by 40% through pipeline parallelization work",
				},
			},
			{
				Title: "Engineer", Company: "Initech", StartDate: "2016-01", EndDate: "2020-02",
				Bullets: []string{
					"Developed internal tooling used by 30 employees across three offices",
				},
			},
		},
		Education: []schema.Education{{Degree: "BS Computer Science", Institution: "State University"}},
		Skills:    []string{"Go", "Python", "PostgreSQL", "Kubernetes", "Docker", "Terraform"},
	}
}

func problemResume() *schema.ResumeData {
	r := cleanResume()
	r.PersonalInfo.Email = ""
	r.Experience[0].Bullets = []string{
		"Responsible for maintaining the legacy billing system every day",
		"Worked on various projects across multiple departments as needed",
	}
	r.Experience[1].Bullets = []string{
		"Handled support tickets and documentation upkeep",
	}
	return r
}

func TestAnalyzeEndToEnd(t *testing.T) {
	out, err := New().Analyze(problemResume(), nil, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(out.Signals) == 0 || len(out.Interprets) == 0 || len(out.Judgments) == 0 {
		t.Fatalf("layer outputs = %d/%d/%d, want all non-empty",
			len(out.Signals), len(out.Interprets), len(out.Judgments))
	}
	if len(out.RunID) != 12 {
		t.Fatalf("run id length = %d, want 12", len(out.RunID))
	}
	if len(out.InputHash) != 16 {
		t.Fatalf("input hash length = %d, want 16", len(out.InputHash))
	}
	if out.SignalSummary.BySeverity[signal.SeverityCritical] == 0 {
		t.Fatal("missing email should produce a critical signal")
	}

	for _, j := range out.Judgments {
		if len(j.CitedSignalIDs) == 0 && len(j.CitedInterpretationIDs) == 0 {
			t.Fatalf("judgment %s has no citations", j.ID)
		}
	}
}

func TestPriorityFeedbackSurfacesCritical(t *testing.T) {
	out, err := New().Analyze(problemResume(), nil, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	feedback := out.PriorityFeedback()
	foundCritical := false
	for _, f := range feedback {
		if f.Kind == "signal" && f.Severity == "critical" {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Fatalf("no critical signal in priority feedback: %+v", feedback)
	}

	judgmentItems := 0
	for _, f := range feedback {
		if f.Kind == "judgment" {
			judgmentItems++
		}
	}
	if judgmentItems > 3 {
		t.Fatalf("judgment items = %d, want at most 3", judgmentItems)
	}
}

func TestAnalyzeCachesByInput(t *testing.T) {
	p := New()
	first, err := p.Analyze(cleanResume(), nil, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := p.Analyze(cleanResume(), nil, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if first != second {
		t.Fatal("identical input should return the cached output")
	}

	withJob, err := p.Analyze(cleanResume(), &schema.JobData{Title: "SRE", RequiredSkills: []string{"Go"}}, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if withJob.InputHash == first.InputHash {
		t.Fatal("adding a job description must change the input hash")
	}
}

func TestAnalyzeCacheCoversRequestedTypes(t *testing.T) {
	p := New()
	plain, err := p.Analyze(cleanResume(), nil, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	withGap, err := p.Analyze(cleanResume(), nil,
		Options{JudgmentTypes: []judgment.Type{judgment.TypeGapAnalysis}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if withGap == plain {
		t.Fatal("requesting extra judgment types must not return the plain cached output")
	}
	if withGap.InputHash == plain.InputHash {
		t.Fatal("requested judgment types must change the input hash")
	}

	// Duplicate and reordered requests are the same request.
	again, err := p.Analyze(cleanResume(), nil,
		Options{JudgmentTypes: []judgment.Type{judgment.TypeGapAnalysis, judgment.TypeGapAnalysis}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if again != withGap {
		t.Fatal("equivalent option sets should share a cache entry")
	}
}

func TestConcurrentAnalyzeSingleWinner(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New()
	outputs := make([]*Output, 8)
	var wg sync.WaitGroup
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := p.Analyze(problemResume(), nil, Options{})
			if err != nil {
				t.Errorf("Analyze failed: %v", err)
				return
			}
			outputs[i] = out
		}(i)
	}
	wg.Wait()

	runIDs := make(map[string]bool)
	for _, out := range outputs {
		if out != nil {
			runIDs[out.RunID] = true
		}
	}
	if len(runIDs) != 1 {
		t.Fatalf("concurrent runs produced %d run ids, want 1", len(runIDs))
	}
}

func TestQuickStatus(t *testing.T) {
	p := New()

	if fb := p.Quick(cleanResume()); fb.Status != "good" {
		t.Fatalf("clean resume status = %s, want good: %+v", fb.Status, fb.TopIssues)
	}

	invalid := cleanResume()
	invalid.PersonalInfo.Email = "not-an-email"
	if fb := p.Quick(invalid); fb.Status != "warning" {
		t.Fatalf("invalid email status = %s, want warning", fb.Status)
	}

	fb := p.Quick(problemResume())
	if fb.Status != "critical" {
		t.Fatalf("missing email status = %s, want critical", fb.Status)
	}
	if fb.CriticalCount == 0 {
		t.Fatal("critical count = 0")
	}
	if len(fb.TopIssues) > 5 {
		t.Fatalf("top issues = %d, want at most 5", len(fb.TopIssues))
	}
	if fb.TopIssues[0].Severity != "critical" {
		t.Fatalf("first issue severity = %s, want critical", fb.TopIssues[0].Severity)
	}
}

func TestDetermineJudgmentTypes(t *testing.T) {
	base := signal.Summary{BySeverity: map[signal.Severity]int{}}
	high := signal.Summary{BySeverity: map[signal.Severity]int{signal.SeverityHigh: 2}}
	large := signal.Summary{BySeverity: map[signal.Severity]int{}, TotalSignals: 11}

	cases := []struct {
		name      string
		summary   signal.Summary
		hasJob    bool
		requested []judgment.Type
		want      []judgment.Type
	}{
		{
			name: "defaults", summary: base,
			want: []judgment.Type{judgment.TypeImprovementPriority, judgment.TypeStrengthHighlight},
		},
		{
			name: "high severity adds rewrites", summary: high,
			want: []judgment.Type{judgment.TypeImprovementPriority, judgment.TypeStrengthHighlight,
				judgment.TypeRewriteSuggestion},
		},
		{
			name: "job adds skill recommendations", summary: base, hasJob: true,
			want: []judgment.Type{judgment.TypeImprovementPriority, judgment.TypeStrengthHighlight,
				judgment.TypeSkillRecommendation},
		},
		{
			name: "large signal set adds skill recommendations", summary: large,
			want: []judgment.Type{judgment.TypeImprovementPriority, judgment.TypeStrengthHighlight,
				judgment.TypeSkillRecommendation},
		},
		{
			name: "requested types deduplicated", summary: base,
			requested: []judgment.Type{judgment.TypeStrengthHighlight, judgment.TypeCareerInsight},
			want: []judgment.Type{judgment.TypeImprovementPriority, judgment.TypeStrengthHighlight,
				judgment.TypeCareerInsight},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := determineJudgmentTypes(tc.summary, tc.hasJob, tc.requested)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("judgment types mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
