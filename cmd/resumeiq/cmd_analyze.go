package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resumeiq/internal/pipeline"
	"resumeiq/internal/schema"
)

var jobPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume.json]",
	Short: "Run the full three-layer analysis on a resume",
	Long: `Runs the complete intelligence pipeline:
  1. Signals: deterministic facts extracted with pure logic
  2. Interpretation: template-constrained explanations of those facts
  3. Judgment: bounded AI suggestions, every one citing its sources

Pass --job to compare the resume against a job description.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var quickCmd = &cobra.Command{
	Use:   "quick [resume.json]",
	Short: "Signal-layer-only feedback for fast iteration",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuick,
}

func init() {
	analyzeCmd.Flags().StringVar(&jobPath, "job", "", "Path to a job description JSON file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	resume, err := schema.LoadResume(args[0])
	if err != nil {
		return err
	}

	var job *schema.JobData
	if jobPath != "" {
		job, err = schema.LoadJob(jobPath)
		if err != nil {
			return err
		}
	}

	out, err := pipeline.New().Analyze(resume, job, pipeline.Options{})
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Analysis " + out.RunID))
	fmt.Println(dimStyle.Render(fmt.Sprintf("input %s | %.1fms (signals %.1f, interpret %.1f, judge %.1f)",
		out.InputHash, out.ProcessingTimeMS, out.Layer1TimeMS, out.Layer2TimeMS, out.Layer3TimeMS)))
	fmt.Println()

	summary := out.SignalSummary
	fmt.Printf("Signals: %d total", summary.TotalSignals)
	if n := len(summary.CriticalIssues); n > 0 {
		fmt.Printf(", %s", criticalStyle.Render(fmt.Sprintf("%d critical", n)))
	}
	if n := len(summary.HighIssues); n > 0 {
		fmt.Printf(", %s", highStyle.Render(fmt.Sprintf("%d high", n)))
	}
	fmt.Println()
	fmt.Println()

	feedback := out.PriorityFeedback()
	if len(feedback) == 0 {
		fmt.Println(goodStyle.Render("No priority issues found."))
		return nil
	}

	for _, item := range feedback {
		switch item.Kind {
		case "signal":
			style := severityStyle(item.Severity)
			fmt.Printf("  %s %s", style.Render("["+item.Severity+"]"), item.Description)
			if item.Source != "" {
				fmt.Printf(" %s", dimStyle.Render("("+item.Source+")"))
			}
			fmt.Println()
		case "interpretation":
			fmt.Printf("  %s %s\n", mediumStyle.Render("[insight]"), item.Explanation)
			if item.Action != "" {
				fmt.Printf("           %s\n", dimStyle.Render("→ "+item.Action))
			}
		case "judgment":
			fmt.Printf("  %s %s %s\n", goodStyle.Render("[suggestion]"), item.Content,
				dimStyle.Render(fmt.Sprintf("(confidence %.2f)", item.Confidence)))
			for _, caveat := range item.Caveats {
				fmt.Printf("               %s\n", dimStyle.Render(caveat))
			}
		}
	}
	return nil
}

func runQuick(cmd *cobra.Command, args []string) error {
	resume, err := schema.LoadResume(args[0])
	if err != nil {
		return err
	}

	fb := pipeline.New().Quick(resume)

	var status string
	switch fb.Status {
	case "critical":
		status = criticalStyle.Render("CRITICAL")
	case "warning":
		status = highStyle.Render("WARNING")
	default:
		status = goodStyle.Render("GOOD")
	}
	fmt.Printf("%s  %d critical, %d high\n", status, fb.CriticalCount, fb.HighCount)
	for _, issue := range fb.TopIssues {
		fmt.Printf("  %s %s\n", severityStyle(issue.Severity).Render("["+issue.Severity+"]"), issue.Description)
	}
	return nil
}
