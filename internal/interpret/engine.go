package interpret

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"resumeiq/internal/logging"
	"resumeiq/internal/signal"
)

// ====== INTERPRETATION TEMPLATES ======

// template phrases an interpretation for one (type, severity) pair.
// Placeholders: {value} is the signal value, {pct} the metric percentage
// from the signal context.
type template struct {
	explanation string
	action      string
	why         string
	tone        Tone
	priority    int
}

type templateKey struct {
	t   signal.Type
	sev signal.Severity
}

var templates = map[templateKey]template{
	{signal.TypeSectionMissing, signal.SeverityCritical}: {
		explanation: "Your resume is missing {value}, which is essential for ATS systems and recruiters.",
		action:      "Add a {value} section to ensure your resume can be properly parsed.",
		why:         "Without {value}, recruiters may not be able to contact you or understand your background.",
		tone:        ToneDirect,
		priority:    100,
	},
	{signal.TypeSectionMissing, signal.SeverityMedium}: {
		explanation: "Adding a {value} section could strengthen your resume.",
		action:      "Consider adding a brief {value} section.",
		why:         "Many recruiters look for this section to quickly understand your profile.",
		tone:        ToneSupportive,
		priority:    50,
	},
	{signal.TypeEmailMissing, signal.SeverityCritical}: {
		explanation: "We couldn't find an email address on your resume.",
		action:      "Add your email address prominently in the contact section.",
		why:         "Recruiters need a way to reach you. Without an email, your application may be skipped.",
		tone:        ToneDirect,
		priority:    100,
	},
	{signal.TypeBulletHasMetric, signal.SeverityHigh}: {
		explanation: "Only {pct}% of your bullet points include quantifiable results.",
		action:      "Add specific numbers, percentages, or metrics to demonstrate your impact.",
		why:         "Metrics help recruiters understand the scale and impact of your work. They're memorable and credible.",
		tone:        ToneSupportive,
		priority:    80,
	},
	{signal.TypeBulletHasActionVerb, signal.SeverityLow}: {
		explanation: "This bullet doesn't start with a strong action verb.",
		action:      "Start with verbs like 'Led', 'Built', 'Improved', or 'Delivered'.",
		why:         "Action verbs make your accomplishments more dynamic and demonstrate leadership.",
		tone:        ToneSupportive,
		priority:    30,
	},
	{signal.TypeSkillMissing, signal.SeverityHigh}: {
		explanation: "The required skill '{value}' was not found on your resume.",
		action:      "If you have this skill, add it. If not, consider if this role is a good match.",
		why:         "This is listed as a requirement. Missing required skills may disqualify your application.",
		tone:        ToneDirect,
		priority:    70,
	},
	{signal.TypeSkillMatch, signal.SeverityInfo}: {
		explanation: "Great! Your '{value}' skill matches what the employer is looking for.",
		why:         "This alignment increases your chances of passing initial screening.",
		tone:        ToneCelebratory,
		priority:    20,
	},
	{signal.TypeFormatIssue, signal.SeverityMedium}: {
		explanation: "We detected formatting that may cause issues with ATS systems.",
		action:      "Consider using a simpler format without tables, columns, or special formatting.",
		why:         "Many ATS systems struggle to parse complex formatting, which can cause your information to be scrambled.",
		tone:        ToneCautious,
		priority:    60,
	},
	{signal.TypeJobHopping, signal.SeverityMedium}: {
		explanation: "Your resume shows {value} positions with short tenure.",
		action:      "Be prepared to explain these transitions positively in interviews.",
		why:         "Some employers may question frequent job changes. Have clear, positive explanations ready.",
		tone:        ToneCautious,
		priority:    40,
	},
}

// Engine translates signals into interpretations. Purely template-driven:
// every interpretation cites at least one signal.
type Engine struct {
	log *logging.Logger
}

// NewEngine returns an interpretation engine.
func NewEngine() *Engine {
	return &Engine{log: logging.Get(logging.CategoryInterpret)}
}

// Interpret produces interpretations for signals, sorted by priority
// (highest first). Related skill signals are combined into summaries.
func (e *Engine) Interpret(signals []signal.Signal) []Interpretation {
	var out []Interpretation

	for _, group := range groupRelated(signals) {
		var interp Interpretation
		if len(group) == 1 {
			interp = e.interpretSingle(group[0])
		} else {
			interp = e.interpretCombined(group)
		}
		out = append(out, interp)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })

	e.log.Debug("produced %d interpretations from %d signals", len(out), len(signals))
	return out
}

// groupRelated groups skill matches together and skill misses together;
// everything else is interpreted individually.
func groupRelated(signals []signal.Signal) [][]signal.Signal {
	var groups [][]signal.Signal
	used := make(map[string]bool)

	var matches, missing []signal.Signal
	for _, s := range signals {
		switch s.Type {
		case signal.TypeSkillMatch:
			matches = append(matches, s)
		case signal.TypeSkillMissing:
			missing = append(missing, s)
		}
	}
	if len(matches) > 0 {
		groups = append(groups, matches)
		for _, s := range matches {
			used[s.ID] = true
		}
	}
	if len(missing) > 0 {
		groups = append(groups, missing)
		for _, s := range missing {
			used[s.ID] = true
		}
	}

	for _, s := range signals {
		if !used[s.ID] {
			groups = append(groups, []signal.Signal{s})
		}
	}
	return groups
}

func (e *Engine) interpretSingle(sig signal.Signal) Interpretation {
	tpl, ok := templates[templateKey{sig.Type, sig.Severity}]
	if !ok {
		// No template: echo the signal description directly.
		return Interpretation{
			ID:              uuid.NewString(),
			SourceSignalIDs: []string{sig.ID},
			Explanation:     sig.Description,
			Tone:            ToneDirect,
			Confidence:      0.9,
			Category:        categoryOf(sig.Type),
			Priority:        severityPriority[sig.Severity],
			GeneratedAt:     time.Now().UTC(),
		}
	}

	return Interpretation{
		ID:              uuid.NewString(),
		SourceSignalIDs: []string{sig.ID},
		Explanation:     render(tpl.explanation, sig),
		SuggestedAction: render(tpl.action, sig),
		WhyItMatters:    render(tpl.why, sig),
		Tone:            tpl.tone,
		Confidence:      1.0,
		Category:        categoryOf(sig.Type),
		Priority:        tpl.priority,
		GeneratedAt:     time.Now().UTC(),
	}
}

func (e *Engine) interpretCombined(group []signal.Signal) Interpretation {
	first := group[0]

	switch first.Type {
	case signal.TypeSkillMatch:
		skills := signalValues(group)
		return Interpretation{
			ID:              uuid.NewString(),
			SourceSignalIDs: signalIDs(group),
			Explanation: fmt.Sprintf("Your resume matches %d required skills: %s",
				len(skills), joinCapped(skills, 5)),
			WhyItMatters: "Strong skill alignment increases your chances of passing ATS screening.",
			Tone:         ToneCelebratory,
			Confidence:   1.0,
			Category:     "skills",
			Priority:     60,
			GeneratedAt:  time.Now().UTC(),
		}
	case signal.TypeSkillMissing:
		skills := signalValues(group)
		return Interpretation{
			ID:              uuid.NewString(),
			SourceSignalIDs: signalIDs(group),
			Explanation: fmt.Sprintf("%d required skills are missing from your resume: %s",
				len(skills), joinCapped(skills, 5)),
			SuggestedAction: "Add these skills if you have them, or evaluate if this role aligns with your experience.",
			WhyItMatters:    "Missing required skills may prevent your application from advancing.",
			Tone:            ToneDirect,
			Confidence:      1.0,
			Category:        "skills",
			Priority:        75,
			GeneratedAt:     time.Now().UTC(),
		}
	default:
		return e.interpretSingle(first)
	}
}

// render substitutes template placeholders with signal data.
func render(tpl string, sig signal.Signal) string {
	if tpl == "" {
		return ""
	}
	out := strings.ReplaceAll(tpl, "{value}", fmt.Sprint(sig.Value))
	if strings.Contains(out, "{pct}") {
		pct := 0.0
		if v, ok := sig.Context["percentage"].(float64); ok {
			pct = v
		}
		out = strings.ReplaceAll(out, "{pct}", fmt.Sprintf("%.0f", pct))
	}
	return out
}

func signalIDs(group []signal.Signal) []string {
	ids := make([]string, len(group))
	for i, s := range group {
		ids[i] = s.ID
	}
	return ids
}

func signalValues(group []signal.Signal) []string {
	vals := make([]string, len(group))
	for i, s := range group {
		vals[i] = fmt.Sprint(s.Value)
	}
	return vals
}

func joinCapped(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + "..."
}
