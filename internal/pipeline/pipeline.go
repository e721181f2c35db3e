// Package pipeline orchestrates the three intelligence layers: extract
// deterministic signals, interpret them with constrained templates, then
// generate bounded judgments. Output is fully traceable back to signals.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"resumeiq/internal/interpret"
	"resumeiq/internal/judgment"
	"resumeiq/internal/logging"
	"resumeiq/internal/schema"
	"resumeiq/internal/signal"
)

// Output is the complete result of one pipeline run.
type Output struct {
	Signals       []signal.Signal            `json:"signals"`
	SignalSummary signal.Summary             `json:"signal_summary"`
	Interprets    []interpret.Interpretation `json:"interpretations"`
	Judgments     []judgment.Judgment        `json:"judgments"`

	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	InputHash string    `json:"input_hash"`

	ProcessingTimeMS float64 `json:"processing_time_ms"`
	Layer1TimeMS     float64 `json:"layer1_time_ms"`
	Layer2TimeMS     float64 `json:"layer2_time_ms"`
	Layer3TimeMS     float64 `json:"layer3_time_ms"`
}

// FeedbackItem is one entry of prioritized feedback.
type FeedbackItem struct {
	Kind        string   `json:"kind"` // signal, interpretation, judgment
	Severity    string   `json:"severity,omitempty"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Action      string   `json:"action,omitempty"`
	Content     string   `json:"content,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	Caveats     []string `json:"caveats,omitempty"`
}

// PriorityFeedback returns the items worth surfacing first: critical and
// high signals, urgent interpretations, and the top judgments.
func (o *Output) PriorityFeedback() []FeedbackItem {
	var feedback []FeedbackItem

	for _, sig := range o.Signals {
		if sig.Severity == signal.SeverityCritical || sig.Severity == signal.SeverityHigh {
			feedback = append(feedback, FeedbackItem{
				Kind:        "signal",
				Severity:    string(sig.Severity),
				Description: sig.Description,
				Source:      sig.SourceLocation,
			})
		}
	}

	for _, in := range o.Interprets {
		if in.Priority >= 80 {
			feedback = append(feedback, FeedbackItem{
				Kind:        "interpretation",
				Explanation: in.Explanation,
				Action:      in.SuggestedAction,
			})
		}
	}

	judgments := o.Judgments
	if len(judgments) > 3 {
		judgments = judgments[:3]
	}
	for _, j := range judgments {
		feedback = append(feedback, FeedbackItem{
			Kind:       "judgment",
			Content:    j.Content,
			Confidence: j.Confidence,
			Caveats:    j.Caveats,
		})
	}
	return feedback
}

// QuickFeedback is lightweight real-time feedback from the signal layer.
type QuickFeedback struct {
	Status        string       `json:"status"` // critical, warning, good
	CriticalCount int          `json:"critical_count"`
	HighCount     int          `json:"high_count"`
	TopIssues     []QuickIssue `json:"top_issues"`
}

// QuickIssue is one surfaced problem in quick feedback.
type QuickIssue struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Options tunes a pipeline run.
type Options struct {
	JudgmentTypes []judgment.Type
}

// Pipeline coordinates the three layers. Results are cached by input
// hash; the first completed run for an input wins and later identical
// runs return the cached output.
type Pipeline struct {
	signals    *signal.Engine
	interprets *interpret.Engine
	judgments  *judgment.Engine

	cacheMu sync.Mutex
	cache   map[string]*Output

	log *logging.Logger
}

// New builds a pipeline with default engines.
func New() *Pipeline {
	return &Pipeline{
		signals:    signal.NewEngine(),
		interprets: interpret.NewEngine(),
		judgments:  judgment.NewEngine(judgment.DefaultBoundary()),
		cache:      make(map[string]*Output),
		log:        logging.Get(logging.CategoryPipeline),
	}
}

// NewWithEngines builds a pipeline from explicit layer engines.
func NewWithEngines(s *signal.Engine, i *interpret.Engine, j *judgment.Engine) *Pipeline {
	return &Pipeline{
		signals:    s,
		interprets: i,
		judgments:  j,
		cache:      make(map[string]*Output),
		log:        logging.Get(logging.CategoryPipeline),
	}
}

// Analyze runs the full pipeline over a resume, optionally against a job
// description.
func (p *Pipeline) Analyze(resume *schema.ResumeData, job *schema.JobData, opts Options) (*Output, error) {
	start := time.Now()

	inputHash, err := hashInput(resume, job, opts)
	if err != nil {
		return nil, err
	}

	p.cacheMu.Lock()
	if cached, ok := p.cache[inputHash]; ok {
		p.cacheMu.Unlock()
		p.log.Debug("cache hit for input %s (run %s)", inputHash, cached.RunID)
		return cached, nil
	}
	p.cacheMu.Unlock()

	layer1Start := time.Now()
	signals := p.signals.Extract(resume, job)
	summary := signal.Summarize(signals)
	layer1 := elapsedMS(layer1Start)

	layer2Start := time.Now()
	interpretations := p.interprets.Interpret(signals)
	layer2 := elapsedMS(layer2Start)

	layer3Start := time.Now()
	types := determineJudgmentTypes(summary, job != nil, opts.JudgmentTypes)
	judgments := p.judgments.Generate(signals, interpretations, types)
	layer3 := elapsedMS(layer3Start)

	timestamp := time.Now().UTC()
	out := &Output{
		Signals:          signals,
		SignalSummary:    summary,
		Interprets:       interpretations,
		Judgments:        judgments,
		RunID:            runID(timestamp, len(signals), len(judgments)),
		Timestamp:        timestamp,
		InputHash:        inputHash,
		ProcessingTimeMS: elapsedMS(start),
		Layer1TimeMS:     layer1,
		Layer2TimeMS:     layer2,
		Layer3TimeMS:     layer3,
	}

	p.cacheMu.Lock()
	if existing, ok := p.cache[inputHash]; ok {
		// A concurrent run finished first; its output stands.
		p.cacheMu.Unlock()
		return existing, nil
	}
	p.cache[inputHash] = out
	p.cacheMu.Unlock()

	p.log.Info("run %s: %d signals, %d interpretations, %d judgments in %.1fms",
		out.RunID, len(signals), len(interpretations), len(judgments), out.ProcessingTimeMS)
	return out, nil
}

// Quick runs only the signal layer for real-time editing feedback.
func (p *Pipeline) Quick(resume *schema.ResumeData) QuickFeedback {
	signals := p.signals.Extract(resume, nil)

	var critical, high []signal.Signal
	for _, s := range signals {
		switch s.Severity {
		case signal.SeverityCritical:
			critical = append(critical, s)
		case signal.SeverityHigh:
			high = append(high, s)
		}
	}

	status := "good"
	if len(high) > 0 {
		status = "warning"
	}
	if len(critical) > 0 {
		status = "critical"
	}

	top := append(append([]signal.Signal{}, critical...), high...)
	if len(top) > 5 {
		top = top[:5]
	}
	issues := make([]QuickIssue, len(top))
	for i, s := range top {
		issues[i] = QuickIssue{Description: s.Description, Severity: string(s.Severity)}
	}

	return QuickFeedback{
		Status:        status,
		CriticalCount: len(critical),
		HighCount:     len(high),
		TopIssues:     issues,
	}
}

// determineJudgmentTypes picks judgment types from the signal profile.
// Priority and strengths always run; rewrites when high-severity issues
// exist; skill recommendations when a job is present or the signal set is
// large. Caller-requested types are appended, deduplicated.
func determineJudgmentTypes(summary signal.Summary, hasJob bool, requested []judgment.Type) []judgment.Type {
	types := []judgment.Type{
		judgment.TypeImprovementPriority,
		judgment.TypeStrengthHighlight,
	}
	if summary.BySeverity[signal.SeverityHigh] > 0 {
		types = append(types, judgment.TypeRewriteSuggestion)
	}
	if hasJob || summary.TotalSignals > 10 {
		types = append(types, judgment.TypeSkillRecommendation)
	}

	seen := make(map[judgment.Type]bool, len(types))
	for _, t := range types {
		seen[t] = true
	}
	for _, t := range requested {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}

// hashInput derives a deterministic hash of the full request: resume,
// job, and the caller-requested judgment types (deduplicated and sorted
// so equivalent requests share a cache entry).
func hashInput(resume *schema.ResumeData, job *schema.JobData, opts Options) (string, error) {
	seen := make(map[judgment.Type]bool, len(opts.JudgmentTypes))
	var requested []string
	for _, t := range opts.JudgmentTypes {
		if !seen[t] {
			seen[t] = true
			requested = append(requested, string(t))
		}
	}
	sort.Strings(requested)

	payload := struct {
		Resume    *schema.ResumeData `json:"resume"`
		Job       *schema.JobData    `json:"job"`
		Requested []string           `json:"requested_judgment_types,omitempty"`
	}{resume, job, requested}

	content, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to hash pipeline input: %w", err)
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16], nil
}

func runID(timestamp time.Time, signalCount, judgmentCount int) string {
	content := fmt.Sprintf("%s-%d-%d", timestamp.Format(time.RFC3339Nano), signalCount, judgmentCount)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:12]
}

func elapsedMS(since time.Time) float64 {
	return float64(time.Since(since).Microseconds()) / 1000
}
