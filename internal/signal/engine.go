package signal

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"resumeiq/internal/logging"
	"resumeiq/internal/schema"
)

// ====== DETECTION RULES ======

// actionVerbs are the strong leading verbs bullets should open with.
var actionVerbs = map[string]bool{
	"achieved": true, "administered": true, "analyzed": true, "built": true,
	"collaborated": true, "conducted": true, "coordinated": true, "created": true,
	"decreased": true, "delivered": true, "designed": true, "developed": true,
	"directed": true, "established": true, "executed": true, "expanded": true,
	"generated": true, "implemented": true, "improved": true, "increased": true,
	"initiated": true, "launched": true, "led": true, "managed": true,
	"mentored": true, "negotiated": true, "optimized": true, "orchestrated": true,
	"organized": true, "pioneered": true, "planned": true, "produced": true,
	"reduced": true, "resolved": true, "scaled": true, "spearheaded": true,
	"streamlined": true, "supervised": true, "transformed": true, "upgraded": true,
}

var metricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\$[\d,]+`),
	regexp.MustCompile(`(?i)[\d,]+\s*(users|customers|clients|employees|team members)`),
	regexp.MustCompile(`[\d,]+x`),
	regexp.MustCompile(`(?i)\d+\s*(million|billion|k|M|B)`),
	regexp.MustCompile(`#\d+`),
	regexp.MustCompile(`(?i)\d+\s*(hours?|days?|weeks?|months?|years?)`),
}

var (
	emailPattern     = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	tableCharPattern = regexp.MustCompile(`[│┌─┐└┘├┤┬┴┼]`)
	nonASCIIPattern  = regexp.MustCompile(`[^\x00-\x7F]`)
)

var (
	requiredSections    = []string{"experience", "personal_info", "skills"}
	recommendedSections = []string{"education", "summary"}
)

const (
	bulletMaxChars      = 200
	bulletMinChars      = 30
	minSkillCount       = 5
	lowMetricPct        = 30.0
	shortTenureFlagAt   = 3
	employmentGapMonths = 6
)

// Engine extracts deterministic signals from resume data.
// No provider calls anywhere in this package.
type Engine struct {
	log *logging.Logger
}

// NewEngine returns a signal engine.
func NewEngine() *Engine {
	return &Engine{log: logging.Get(logging.CategorySignal)}
}

// Extract produces all signals for a resume, optionally matched against
// a job description. Output order is stable for identical input.
func (e *Engine) Extract(resume *schema.ResumeData, job *schema.JobData) []Signal {
	if resume == nil {
		return nil
	}

	var signals []Signal
	signals = append(signals, e.analyzeSections(resume)...)
	signals = append(signals, e.analyzeContact(resume.PersonalInfo)...)
	signals = append(signals, e.analyzeExperience(resume.Experience)...)
	signals = append(signals, e.analyzeBullets(resume.Experience)...)
	if job != nil {
		signals = append(signals, e.analyzeSkills(resume.Skills, job.RequiredSkills)...)
	} else {
		signals = append(signals, e.analyzeSkills(resume.Skills, nil)...)
	}
	signals = append(signals, e.analyzeFormat(resume)...)

	e.log.Debug("extracted %d signals", len(signals))
	return signals
}

func (e *Engine) analyzeSections(r *schema.ResumeData) []Signal {
	var signals []Signal

	for _, section := range requiredSections {
		if r.HasSection(section) {
			signals = append(signals, newSignal(TypeSectionPresent, SeverityInfo, section, "",
				fmt.Sprintf("Required section '%s' is present", section)))
		} else {
			signals = append(signals, newSignal(TypeSectionMissing, SeverityCritical, section, "",
				fmt.Sprintf("Required section '%s' is missing", section)))
		}
	}

	for _, section := range recommendedSections {
		if !r.HasSection(section) {
			signals = append(signals, newSignal(TypeSectionMissing, SeverityMedium, section, "",
				fmt.Sprintf("Recommended section '%s' is missing", section)))
		}
	}

	return signals
}

func (e *Engine) analyzeContact(info *schema.PersonalInfo) []Signal {
	var signals []Signal
	if info == nil {
		info = &schema.PersonalInfo{}
	}

	if info.Email != "" {
		if emailPattern.MatchString(info.Email) {
			signals = append(signals, newSignal(TypeEmailValid, SeverityInfo, true, "",
				"Valid email address present"))
		} else {
			sig := newSignal(TypeEmailValid, SeverityHigh, false, "",
				"Email address format appears invalid")
			sig.Context = map[string]interface{}{"email": info.Email}
			signals = append(signals, sig)
		}
	} else {
		signals = append(signals, newSignal(TypeEmailMissing, SeverityCritical, true, "",
			"No email address found - critical for recruiter contact"))
	}

	if info.Phone != "" {
		signals = append(signals, newSignal(TypePhonePresent, SeverityInfo, true, "",
			"Phone number present"))
	}

	if info.LinkedIn != "" && strings.Contains(strings.ToLower(info.LinkedIn), "linkedin") {
		signals = append(signals, newSignal(TypeLinkedInPresent, SeverityInfo, true, "",
			"LinkedIn profile present"))
	}

	return signals
}

func (e *Engine) analyzeExperience(experiences []schema.Experience) []Signal {
	var signals []Signal

	expCount := len(experiences)
	signals = append(signals, newSignal(TypeExperienceCount, SeverityInfo, expCount, "",
		fmt.Sprintf("%d work experience entries found", expCount)))

	if expCount == 0 {
		return signals
	}

	// Short tenures (job hopping): same start and end year counts as short.
	shortTenures := 0
	for i, exp := range experiences {
		start, end := exp.StartDate, exp.EndDate
		if start != "" && end != "" && !isPresent(end) {
			if yearOf(start) == yearOf(end) {
				shortTenures++
			}
			if d1, ok1 := parseMonth(start); ok1 {
				if d2, ok2 := parseMonth(end); ok2 && d2.Before(d1) {
					signals = append(signals, newSignal(TypeInconsistentDates, SeverityMedium,
						fmt.Sprintf("%s to %s", start, end),
						fmt.Sprintf("experience[%d]", i),
						fmt.Sprintf("End date %s is before start date %s", end, start)))
				}
			}
		}
	}
	if shortTenures >= shortTenureFlagAt {
		signals = append(signals, newSignal(TypeJobHopping, SeverityMedium, shortTenures, "",
			fmt.Sprintf("%d positions with potentially short tenure detected", shortTenures)))
	}

	signals = append(signals, e.analyzeGaps(experiences)...)
	return signals
}

// analyzeGaps flags breaks longer than six months between consecutive jobs.
func (e *Engine) analyzeGaps(experiences []schema.Experience) []Signal {
	type span struct {
		start, end time.Time
	}
	var spans []span
	for _, exp := range experiences {
		start, ok := parseMonth(exp.StartDate)
		if !ok {
			continue
		}
		end := time.Now().UTC()
		if !isPresent(exp.EndDate) {
			parsed, ok := parseMonth(exp.EndDate)
			if !ok {
				continue
			}
			end = parsed
		}
		spans = append(spans, span{start: start, end: end})
	}
	if len(spans) < 2 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	var signals []Signal
	for i := 1; i < len(spans); i++ {
		gap := spans[i].start.Sub(spans[i-1].end)
		months := int(gap.Hours() / (24 * 30))
		if months > employmentGapMonths {
			sig := newSignal(TypeEmploymentGap, SeverityMedium, months, "",
				fmt.Sprintf("Employment gap of approximately %d months detected", months))
			sig.Context = map[string]interface{}{
				"gap_start": spans[i-1].end.Format("2006-01"),
				"gap_end":   spans[i].start.Format("2006-01"),
			}
			signals = append(signals, sig)
		}
	}
	return signals
}

func (e *Engine) analyzeBullets(experiences []schema.Experience) []Signal {
	var signals []Signal

	totalBullets := 0
	withMetrics := 0
	withVerbs := 0

	for _, exp := range experiences {
		company := exp.Company
		if company == "" {
			company = "Unknown"
		}
		for i, text := range exp.Bullets {
			totalBullets++
			location := fmt.Sprintf("%s, bullet %d", company, i+1)

			if hasMetric(text) {
				withMetrics++
			}

			firstWord := firstWordLower(text)
			if actionVerbs[firstWord] {
				withVerbs++
			} else {
				sig := newSignal(TypeBulletHasActionVerb, SeverityLow, false, location,
					"Bullet does not start with strong action verb")
				sig.Context = map[string]interface{}{
					"text":       truncate(text, 100),
					"first_word": firstWord,
				}
				signals = append(signals, sig)
			}

			if len(text) > bulletMaxChars {
				signals = append(signals, newSignal(TypeBulletTooLong, SeverityLow, len(text), location,
					fmt.Sprintf("Bullet is %d characters (recommend < %d)", len(text), bulletMaxChars)))
			} else if len(text) < bulletMinChars {
				signals = append(signals, newSignal(TypeBulletTooShort, SeverityLow, len(text), location,
					fmt.Sprintf("Bullet is %d characters (recommend >= %d)", len(text), bulletMinChars)))
			}
		}
	}

	if totalBullets == 0 {
		return signals
	}

	metricPct := float64(withMetrics) / float64(totalBullets) * 100
	verbPct := float64(withVerbs) / float64(totalBullets) * 100

	agg := newSignal(TypeBulletCount, SeverityInfo, totalBullets, "",
		fmt.Sprintf("%d bullets: %.0f%% have metrics, %.0f%% start with action verbs",
			totalBullets, metricPct, verbPct))
	agg.Context = map[string]interface{}{
		"with_metrics":      withMetrics,
		"metric_percentage": metricPct,
		"with_action_verbs": withVerbs,
		"verb_percentage":   verbPct,
	}
	signals = append(signals, agg)

	if metricPct < lowMetricPct {
		sig := newSignal(TypeBulletHasMetric, SeverityHigh, false, "",
			fmt.Sprintf("Only %.0f%% of bullets contain quantifiable metrics", metricPct))
		sig.Context = map[string]interface{}{"percentage": metricPct}
		signals = append(signals, sig)
	}

	return signals
}

func (e *Engine) analyzeSkills(resumeSkills, requiredSkills []string) []Signal {
	var signals []Signal

	skillCount := len(resumeSkills)
	countSeverity := SeverityInfo
	if skillCount <= minSkillCount {
		countSeverity = SeverityLow
	}
	signals = append(signals, newSignal(TypeSkillCount, countSeverity, skillCount, "",
		fmt.Sprintf("%d skills listed", skillCount)))

	if skillCount < minSkillCount {
		signals = append(signals, newSignal(TypeSkillCount, SeverityMedium, skillCount, "",
			fmt.Sprintf("Only %d skills listed (recommend 8-15)", skillCount)))
	}

	if len(requiredSkills) == 0 {
		return signals
	}

	resumeLower := make(map[string]bool, len(resumeSkills))
	for _, s := range resumeSkills {
		resumeLower[strings.ToLower(s)] = true
	}

	for _, skill := range requiredSkills {
		lower := strings.ToLower(skill)
		switch {
		case resumeLower[lower]:
			signals = append(signals, newSignal(TypeSkillMatch, SeverityInfo, skill, "",
				fmt.Sprintf("Required skill '%s' found on resume", skill)))
		case partialMatch(lower, resumeSkills):
			signals = append(signals, newSignal(TypeSkillPartialMatch, SeverityInfo, skill, "",
				fmt.Sprintf("Required skill '%s' partially matches a listed skill", skill)))
		default:
			signals = append(signals, newSignal(TypeSkillMissing, SeverityHigh, skill, "",
				fmt.Sprintf("Required skill '%s' not found on resume", skill)))
		}
	}

	return signals
}

func (e *Engine) analyzeFormat(r *schema.ResumeData) []Signal {
	var signals []Signal

	raw := r.RawText
	if raw == "" {
		return signals
	}

	if matches := tableCharPattern.FindAllString(raw, -1); len(matches) > 0 {
		sig := newSignal(TypeFormatIssue, SeverityMedium, "table_characters", "",
			"Table formatting characters detected - may cause ATS parsing issues")
		sig.Context = map[string]interface{}{"count": len(matches)}
		signals = append(signals, sig)
	}

	if special := len(nonASCIIPattern.FindAllString(raw, -1)); special > 50 {
		signals = append(signals, newSignal(TypeSpecialChars, SeverityLow, special, "",
			fmt.Sprintf("%d non-ASCII characters detected", special)))
	}

	return signals
}

// ====== HELPERS ======

func hasMetric(text string) bool {
	for _, p := range metricPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func firstWordLower(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], ".,;:"))
}

func partialMatch(required string, resumeSkills []string) bool {
	for _, s := range resumeSkills {
		lower := strings.ToLower(s)
		if strings.Contains(lower, required) || strings.Contains(required, lower) {
			return true
		}
	}
	return false
}

func isPresent(end string) bool {
	e := strings.ToLower(strings.TrimSpace(end))
	return e == "" || e == "present" || e == "current"
}

func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}

// parseMonth accepts YYYY-MM or YYYY.
func parseMonth(date string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if t, err := time.Parse("2006-01", date); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006", date); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
