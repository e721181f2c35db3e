package improvement

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFrozenTestCaseDefaults(t *testing.T) {
	tc := NewFrozenTestCase("Responsible for managing the team", "")
	if tc.Category != "general" || tc.Difficulty != "medium" {
		t.Fatalf("defaults = %s/%s, want general/medium", tc.Category, tc.Difficulty)
	}
	if len(tc.CaseID) != 12 {
		t.Fatalf("case id length = %d, want 12", len(tc.CaseID))
	}
	if tc.BaselineScore != -1 {
		t.Fatalf("baseline = %v, want -1 for unset", tc.BaselineScore)
	}
}

func TestCaseIDFromInputHead(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	a := NewFrozenTestCase(string(long), "bullets")
	b := NewFrozenTestCase(string(long[:100])+"different tail", "bullets")
	if a.CaseID != b.CaseID {
		t.Fatal("case id should depend only on the first 100 bytes")
	}

	c := NewFrozenTestCase("completely different input", "bullets")
	if a.CaseID == c.CaseID {
		t.Fatal("different inputs should get different ids")
	}
}

func TestAddIsFrozen(t *testing.T) {
	corpus := NewCorpus()
	tc := NewFrozenTestCase("original input", "bullets")
	corpus.Add(tc)

	modified := tc
	modified.Category = "rewritten"
	corpus.Add(modified)

	if corpus.Len() != 1 {
		t.Fatalf("corpus size = %d, want 1", corpus.Len())
	}
	got, _ := corpus.Get(tc.CaseID)
	if got.Category != "bullets" {
		t.Fatalf("category = %s, re-adding must not overwrite the frozen case", got.Category)
	}
}

func seededCorpus(t *testing.T) *Corpus {
	t.Helper()
	corpus := NewCorpus()
	for _, category := range []string{"bullets", "summary", "skills"} {
		for i := 0; i < 5; i++ {
			tc := NewFrozenTestCase(fmt.Sprintf("%s input number %d", category, i), category)
			corpus.Add(tc)
		}
	}
	return corpus
}

func TestSampleStratifiesByCategory(t *testing.T) {
	corpus := seededCorpus(t)

	samples := corpus.Sample(9, SampleFilter{})
	if len(samples) != 9 {
		t.Fatalf("sample size = %d, want 9", len(samples))
	}

	byCategory := make(map[string]int)
	seen := make(map[string]bool)
	for _, tc := range samples {
		byCategory[tc.Category]++
		if seen[tc.CaseID] {
			t.Fatalf("case %s sampled twice", tc.CaseID)
		}
		seen[tc.CaseID] = true
	}
	for _, category := range []string{"bullets", "summary", "skills"} {
		if byCategory[category] < 3 {
			t.Fatalf("category %s got %d samples, want at least 3", category, byCategory[category])
		}
	}
}

func TestSampleReturnsAllWhenSmall(t *testing.T) {
	corpus := seededCorpus(t)
	if got := corpus.Sample(100, SampleFilter{}); len(got) != 15 {
		t.Fatalf("sample size = %d, want all 15", len(got))
	}
}

func TestSampleFilters(t *testing.T) {
	corpus := seededCorpus(t)
	hard := NewFrozenTestCase("a hard skills case", "skills")
	hard.Difficulty = "hard"
	corpus.Add(hard)

	for _, tc := range corpus.Sample(100, SampleFilter{Category: "skills"}) {
		if tc.Category != "skills" {
			t.Fatalf("filtered sample contains category %s", tc.Category)
		}
	}

	got := corpus.Sample(100, SampleFilter{Difficulty: "hard"})
	if len(got) != 1 || got[0].CaseID != hard.CaseID {
		t.Fatalf("difficulty filter = %+v, want only the hard case", got)
	}
}

func TestLoadCorpusFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.yaml")
	content := `cases:
  - input: "Responsible for managing the team"
    category: bullets
    expected_characteristics:
      - "starts with action verb"
  - input: "Worked on projects"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus file: %v", err)
	}

	corpus := NewCorpus()
	n, err := corpus.LoadCorpusFile(path)
	if err != nil {
		t.Fatalf("LoadCorpusFile failed: %v", err)
	}
	if n != 2 || corpus.Len() != 2 {
		t.Fatalf("loaded %d cases, corpus size %d, want 2/2", n, corpus.Len())
	}

	tc, ok := corpus.Get(caseID("Worked on projects"))
	if !ok {
		t.Fatal("case without explicit id should get a derived one")
	}
	if tc.Category != "general" || tc.Difficulty != "medium" {
		t.Fatalf("defaults = %s/%s, want general/medium", tc.Category, tc.Difficulty)
	}
}

func TestLoadCorpusFileMissing(t *testing.T) {
	corpus := NewCorpus()
	if _, err := corpus.LoadCorpusFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}
