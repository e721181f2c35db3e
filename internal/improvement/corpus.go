// Package improvement implements the offline self-improvement loop:
// a frozen benchmark corpus, candidate evaluation against the current
// production version, promotion decisions, and shadow-mode comparison.
package improvement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"resumeiq/internal/store"
)

// FrozenTestCase is one benchmark input. Cases never change after
// freezing; the case id is derived from the input content.
type FrozenTestCase struct {
	CaseID string `json:"case_id" yaml:"case_id"`

	InputContent string            `json:"input_content" yaml:"input"`
	Context      map[string]string `json:"context,omitempty" yaml:"context,omitempty"`

	ExpectedOutput          string   `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	ExpectedCharacteristics []string `json:"expected_characteristics,omitempty" yaml:"expected_characteristics,omitempty"`

	Category   string    `json:"category" yaml:"category"`
	Difficulty string    `json:"difficulty" yaml:"difficulty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at,omitempty"`

	// BaselineScore is the last recorded production score, negative when unset.
	BaselineScore float64 `json:"baseline_score" yaml:"baseline_score,omitempty"`
}

// NewFrozenTestCase freezes an input as a benchmark case.
func NewFrozenTestCase(input, category string) FrozenTestCase {
	if category == "" {
		category = "general"
	}
	return FrozenTestCase{
		CaseID:        caseID(input),
		InputContent:  input,
		Category:      category,
		Difficulty:    "medium",
		CreatedAt:     time.Now().UTC(),
		BaselineScore: -1,
	}
}

func caseID(input string) string {
	head := input
	if len(head) > 100 {
		head = head[:100]
	}
	sum := sha256.Sum256([]byte(head))
	return hex.EncodeToString(sum[:])[:12]
}

// SampleFilter narrows which cases a sample may draw from. Zero values
// match everything.
type SampleFilter struct {
	Category   string
	Difficulty string
}

// Corpus holds the frozen benchmark cases.
type Corpus struct {
	mu    sync.RWMutex
	cases map[string]FrozenTestCase
	rng   *rand.Rand
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		cases: make(map[string]FrozenTestCase),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add freezes a case into the corpus. Re-adding an existing case id is a
// no-op, the frozen copy stands.
func (c *Corpus) Add(tc FrozenTestCase) {
	if tc.CaseID == "" {
		tc.CaseID = caseID(tc.InputContent)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.cases[tc.CaseID]; exists {
		return
	}
	c.cases[tc.CaseID] = tc
}

// Get returns a case by id.
func (c *Corpus) Get(caseID string) (FrozenTestCase, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.cases[caseID]
	return tc, ok
}

// Len returns the corpus size.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cases)
}

// Sample draws up to count cases with stratified sampling: an even share
// per category first, then a random fill from the remainder.
func (c *Corpus) Sample(count int, filter SampleFilter) []FrozenTestCase {
	c.mu.RLock()
	candidates := make([]FrozenTestCase, 0, len(c.cases))
	for _, tc := range c.cases {
		if filter.Category != "" && tc.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && tc.Difficulty != filter.Difficulty {
			continue
		}
		candidates = append(candidates, tc)
	}
	c.mu.RUnlock()

	// Stable order before shuffling so sampling is reproducible under a
	// seeded generator.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CaseID < candidates[j].CaseID })

	if len(candidates) <= count {
		return candidates
	}

	byCategory := make(map[string][]FrozenTestCase)
	for _, tc := range candidates {
		byCategory[tc.Category] = append(byCategory[tc.Category], tc)
	}

	perCategory := count / len(byCategory)
	if perCategory < 1 {
		perCategory = 1
	}

	picked := make(map[string]bool)
	var samples []FrozenTestCase
	for _, group := range byCategory {
		c.rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		take := perCategory
		if take > len(group) {
			take = len(group)
		}
		for _, tc := range group[:take] {
			picked[tc.CaseID] = true
			samples = append(samples, tc)
		}
	}

	if len(samples) < count {
		var remaining []FrozenTestCase
		for _, tc := range candidates {
			if !picked[tc.CaseID] {
				remaining = append(remaining, tc)
			}
		}
		c.rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
		need := count - len(samples)
		if need > len(remaining) {
			need = len(remaining)
		}
		samples = append(samples, remaining[:need]...)
	}

	if len(samples) > count {
		samples = samples[:count]
	}
	return samples
}

// corpusFile is the YAML layout of a corpus file.
type corpusFile struct {
	Cases []FrozenTestCase `yaml:"cases"`
}

// LoadCorpusFile loads frozen cases from a YAML file into the corpus.
func (c *Corpus) LoadCorpusFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus file: %w", err)
	}
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}
	for _, tc := range file.Cases {
		if tc.Difficulty == "" {
			tc.Difficulty = "medium"
		}
		if tc.Category == "" {
			tc.Category = "general"
		}
		c.Add(tc)
	}
	return len(file.Cases), nil
}

// SaveTo persists all cases to the durable store.
func (c *Corpus) SaveTo(s *store.Store) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, tc := range c.cases {
		err := s.SaveFrozenCase(store.FrozenCase{
			CaseID:       tc.CaseID,
			Category:     tc.Category,
			Input:        tc.InputContent,
			ExpectedJSON: tc.ExpectedOutput,
			FrozenAt:     tc.CreatedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadFrom restores cases from the durable store.
func (c *Corpus) LoadFrom(s *store.Store) (int, error) {
	rows, err := s.ListFrozenCases()
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		c.Add(FrozenTestCase{
			CaseID:         row.CaseID,
			InputContent:   row.Input,
			ExpectedOutput: row.ExpectedJSON,
			Category:       row.Category,
			Difficulty:     "medium",
			CreatedAt:      row.FrozenAt,
			BaselineScore:  -1,
		})
	}
	return len(rows), nil
}
