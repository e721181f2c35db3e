package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"resumeiq/internal/evaluation"
	"resumeiq/internal/provider"
)

var (
	evalOriginal string
	evalJudge    bool
	evalRequired bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [output.txt]",
	Short: "Evaluate an AI output with validators and optionally the AI judge",
	Long: `Runs the rule-based validator suite over the output: forbidden
phrases, uncertainty expression, tone, length, and factual consistency
against the original content.

With --judge, a second model scores helpfulness, accuracy, clarity,
actionability, and tone on a 0-10 scale.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalOriginal, "original", "", "File with the original content the output was derived from")
	evalCmd.Flags().BoolVar(&evalJudge, "judge", false, "Also run the AI judge")
	evalCmd.Flags().BoolVar(&evalRequired, "judge-required", false, "Fail instead of falling back when the judge provider is unavailable")
}

func runEval(cmd *cobra.Command, args []string) error {
	output, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := evaluation.Context{}
	if evalOriginal != "" {
		original, err := os.ReadFile(evalOriginal)
		if err != nil {
			return err
		}
		ctx.OriginalContent = string(original)
	}

	engine := evaluation.NewEngine()
	report := engine.Evaluate(string(output), ctx)

	fmt.Println(titleStyle.Render("Evaluation " + report.OutputHash))
	for _, v := range report.Validations {
		var style = goodStyle
		switch v.Result {
		case evaluation.ResultWarn:
			style = mediumStyle
		case evaluation.ResultFail:
			style = criticalStyle
		}
		fmt.Printf("  %-24s %s  %.2f  %s\n", v.ValidatorName,
			style.Render(strings.ToUpper(string(v.Result))), v.Score, dimStyle.Render(v.Message))
	}
	fmt.Println()
	fmt.Printf("Overall: %s %.3f (safety %.2f, quality %.2f)\n",
		report.OverallResult, report.OverallScore, report.SafetyScore, report.QualityScore)
	if report.PassesThreshold(cfg.Policy.QualityThreshold) {
		fmt.Println(goodStyle.Render("Passes quality threshold"))
	} else {
		fmt.Println(criticalStyle.Render("Below quality threshold"))
	}

	if !evalJudge && !evalRequired {
		return nil
	}

	var client provider.LLMClient
	if cfg.LLM.Provider != "" && cfg.LLM.Provider != "mock" {
		client = provider.NewClient(cfg.LLM)
	}
	judge := evaluation.NewAIJudge(client, cfg.LLM.JudgeModel)
	judge.Required = evalRequired

	eval, err := judge.Evaluate(cmd.Context(), string(output), ctx.OriginalContent, evaluation.JudgeContext{})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Judge (" + eval.JudgeModel + ")"))
	fmt.Printf("  helpfulness %.1f  accuracy %.1f  clarity %.1f  actionability %.1f  tone %.1f\n",
		eval.HelpfulnessScore, eval.AccuracyScore, eval.ClarityScore, eval.ActionabilityScore, eval.ToneScore)
	fmt.Printf("  overall %.1f", eval.OverallScore)
	if eval.PassesThreshold(cfg.Policy.JudgePassScore) {
		fmt.Printf("  %s\n", goodStyle.Render("PASS"))
	} else {
		fmt.Printf("  %s\n", criticalStyle.Render("FAIL"))
	}
	if eval.Reasoning != "" {
		fmt.Println(dimStyle.Render("  " + eval.Reasoning))
	}
	for _, s := range eval.Strengths {
		fmt.Println(goodStyle.Render("  + " + s))
	}
	for _, w := range eval.Weaknesses {
		fmt.Println(mediumStyle.Render("  - " + w))
	}
	return nil
}
