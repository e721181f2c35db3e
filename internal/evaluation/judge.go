package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"resumeiq/internal/logging"
	"resumeiq/internal/provider"
	"resumeiq/internal/types"
)

const judgeSystemPrompt = `You are an expert AI evaluator assessing the quality of resume feedback.

Your task is to evaluate the AI-generated feedback based on these criteria:

1. HELPFULNESS (0-10): Does the feedback help the user improve their resume?
2. ACCURACY (0-10): Is the feedback factually correct and grounded in the resume content?
3. CLARITY (0-10): Is the feedback easy to understand and follow?
4. ACTIONABILITY (0-10): Can the user take specific actions based on this feedback?
5. TONE (0-10): Is the tone supportive, professional, and encouraging?

RED FLAGS (automatic score reduction):
- Guarantees or promises about hiring outcomes
- Fabricated information not in the original resume
- Harsh, condescending, or discouraging language
- Overly generic advice that doesn't address specific content
- Contradictions within the feedback

You MUST respond in this exact JSON format:
{
    "helpfulness_score": <0-10>,
    "accuracy_score": <0-10>,
    "clarity_score": <0-10>,
    "actionability_score": <0-10>,
    "tone_score": <0-10>,
    "overall_score": <0-10>,
    "strengths": ["strength1", "strength2"],
    "weaknesses": ["weakness1", "weakness2"],
    "suggestions": ["suggestion1", "suggestion2"],
    "reasoning": "Brief explanation of scores"
}`

const judgeUserTemplate = `Evaluate this AI-generated resume feedback:

=== ORIGINAL RESUME ===
%s

=== AI-GENERATED FEEDBACK ===
%s

=== CONTEXT ===
Target Role: %s
User Request: %s

Provide your evaluation in JSON format:`

const maxResumeChars = 3000

// JudgeEvaluation is the judge's verdict on one output. Scores are 0-10.
type JudgeEvaluation struct {
	HelpfulnessScore   float64 `json:"helpfulness_score"`
	AccuracyScore      float64 `json:"accuracy_score"`
	ClarityScore       float64 `json:"clarity_score"`
	ActionabilityScore float64 `json:"actionability_score"`
	ToneScore          float64 `json:"tone_score"`

	OverallScore float64 `json:"overall_score"`

	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`

	JudgeModel       string  `json:"judge_model"`
	EvaluationTimeMS float64 `json:"evaluation_time_ms"`
	Reasoning        string  `json:"reasoning"`
}

// PassesThreshold reports whether the overall score clears the bar.
func (e JudgeEvaluation) PassesThreshold(minScore float64) bool {
	return e.OverallScore >= minScore
}

// JudgeContext carries optional framing for the judge.
type JudgeContext struct {
	TargetRole  string
	UserRequest string
}

// AIJudge scores outputs with a separate model. Without a client, or when
// the provider fails in best-effort mode, it falls back to heuristics.
// With Required set, provider failures surface instead.
type AIJudge struct {
	client   provider.LLMClient
	model    string
	Required bool
	log      *logging.Logger
}

// NewAIJudge builds a judge. A nil client means heuristic-only scoring.
func NewAIJudge(client provider.LLMClient, model string) *AIJudge {
	if model == "" {
		model = "gpt-4o"
	}
	return &AIJudge{
		client: client,
		model:  model,
		log:    logging.Get(logging.CategoryEvaluation),
	}
}

// Evaluate scores an AI output against the original input.
func (j *AIJudge) Evaluate(ctx context.Context, aiOutput, originalInput string, jctx JudgeContext) (JudgeEvaluation, error) {
	start := time.Now()

	targetRole := jctx.TargetRole
	if targetRole == "" {
		targetRole = "Not specified"
	}
	userRequest := jctx.UserRequest
	if userRequest == "" {
		userRequest = "General feedback"
	}

	resume := originalInput
	if len(resume) > maxResumeChars {
		resume = resume[:maxResumeChars]
	}
	userPrompt := fmt.Sprintf(judgeUserTemplate, resume, aiOutput, targetRole, userRequest)

	var eval JudgeEvaluation
	if j.client != nil {
		response, err := j.client.CompleteWithSystem(ctx, judgeSystemPrompt, userPrompt)
		if err != nil {
			if j.Required {
				return JudgeEvaluation{}, err
			}
			var pf *types.ProviderFailure
			if errors.As(err, &pf) {
				j.log.Warn("judge call failed (%s/%s), using heuristic fallback: %v", pf.Provider, pf.Op, err)
			} else {
				j.log.Warn("judge call failed, using heuristic fallback: %v", err)
			}
			eval = heuristicEvaluation(aiOutput)
		} else {
			eval = parseJudgeResponse(response)
		}
	} else {
		if j.Required {
			return JudgeEvaluation{}, &types.ProviderFailure{
				Provider: "none", Op: "judge",
				Err: errors.New("no provider configured and judge is required"),
			}
		}
		eval = heuristicEvaluation(aiOutput)
	}

	eval.JudgeModel = j.model
	eval.EvaluationTimeMS = float64(time.Since(start).Microseconds()) / 1000
	return eval, nil
}

// parseJudgeResponse tries strict JSON, then a fenced JSON block, then
// regex extraction from free text.
func parseJudgeResponse(response string) JudgeEvaluation {
	eval := defaultEvaluation()

	body := strings.TrimSpace(response)
	if err := json.Unmarshal([]byte(body), &eval); err == nil {
		return eval
	}
	if block, ok := extractJSONBlock(body); ok {
		if err := json.Unmarshal([]byte(block), &eval); err == nil {
			return eval
		}
	}
	return extractScoresFromText(response)
}

func extractJSONBlock(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1], true
	}
	return "", false
}

func defaultEvaluation() JudgeEvaluation {
	return JudgeEvaluation{
		HelpfulnessScore:   5,
		AccuracyScore:      5,
		ClarityScore:       5,
		ActionabilityScore: 5,
		ToneScore:          5,
		OverallScore:       5,
	}
}

var judgeScorePatterns = map[string]*regexp.Regexp{
	"helpfulness":   regexp.MustCompile(`(?i)helpfulness[:\s]+(\d+(?:\.\d+)?)`),
	"accuracy":      regexp.MustCompile(`(?i)accuracy[:\s]+(\d+(?:\.\d+)?)`),
	"clarity":       regexp.MustCompile(`(?i)clarity[:\s]+(\d+(?:\.\d+)?)`),
	"actionability": regexp.MustCompile(`(?i)actionability[:\s]+(\d+(?:\.\d+)?)`),
	"tone":          regexp.MustCompile(`(?i)tone[:\s]+(\d+(?:\.\d+)?)`),
	"overall":       regexp.MustCompile(`(?i)overall[:\s]+(\d+(?:\.\d+)?)`),
}

func extractScoresFromText(response string) JudgeEvaluation {
	eval := defaultEvaluation()
	if len(response) > 500 {
		eval.Reasoning = response[:500]
	} else {
		eval.Reasoning = response
	}

	extract := func(key string) (float64, bool) {
		m := judgeScorePatterns[key].FindStringSubmatch(response)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}

	if v, ok := extract("helpfulness"); ok {
		eval.HelpfulnessScore = v
	}
	if v, ok := extract("accuracy"); ok {
		eval.AccuracyScore = v
	}
	if v, ok := extract("clarity"); ok {
		eval.ClarityScore = v
	}
	if v, ok := extract("actionability"); ok {
		eval.ActionabilityScore = v
	}
	if v, ok := extract("tone"); ok {
		eval.ToneScore = v
	}
	if v, ok := extract("overall"); ok {
		eval.OverallScore = v
	}
	return eval
}

// heuristicEvaluation scores structure signals when no judge model is
// available.
func heuristicEvaluation(aiOutput string) JudgeEvaluation {
	wordCount := len(strings.Fields(aiOutput))
	hasBullets := strings.Contains(aiOutput, "•") || strings.Contains(aiOutput, "-")
	hasSpecifics := strings.ContainsAny(aiOutput, "0123456789")

	base := 6.0
	if wordCount > 50 {
		base += 0.5
	}
	if hasBullets {
		base += 0.5
	}
	if hasSpecifics {
		base += 0.5
	}

	clarity := base
	if hasBullets {
		clarity += 0.5
	}

	return JudgeEvaluation{
		HelpfulnessScore:   base,
		AccuracyScore:      base,
		ClarityScore:       clarity,
		ActionabilityScore: base,
		ToneScore:          7,
		OverallScore:       base,
		Strengths:          []string{"Provides structured feedback"},
		Weaknesses:         []string{"AI judge unavailable - scores are estimates"},
		Reasoning:          "Fallback evaluation using rule-based heuristics",
	}
}
