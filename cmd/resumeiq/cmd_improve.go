package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"resumeiq/internal/evaluation"
	"resumeiq/internal/improvement"
	"resumeiq/internal/provider"
	"resumeiq/internal/registry"
	"resumeiq/internal/store"
)

var (
	corpusPath      string
	improveTarget   string
	improveCurrent  string
	improveProposed string
	improveCases    int

	shadowProduction string
	shadowCandidate  string
)

var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Evaluate a candidate prompt version against production",
	Long: `Runs one improvement cycle: samples the frozen corpus, runs both the
current and the proposed version over every sampled case, scores the
outputs, and decides promotion.

Promotion requires a minimum improvement, a minimum quality score, and a
bounded regression rate; anything else is rejected with the reason.`,
	RunE: runImprove,
}

var shadowCmd = &cobra.Command{
	Use:   "shadow [input.txt]",
	Short: "Run a candidate version in shadow mode against production",
	Long: `Runs both versions on the input. The production output is printed;
the shadow output is only scored and recorded for comparison.`,
	Args: cobra.ExactArgs(1),
	RunE: runShadow,
}

var shadowStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics over recorded shadow runs",
	RunE:  runShadowStats,
}

func init() {
	improveCmd.Flags().StringVar(&corpusPath, "corpus", "", "YAML file of frozen test cases")
	improveCmd.Flags().StringVar(&improveTarget, "target", "", "Prompt name under evaluation")
	improveCmd.Flags().StringVar(&improveCurrent, "current", "", "Current (baseline) version")
	improveCmd.Flags().StringVar(&improveProposed, "proposed", "", "Proposed candidate version")
	improveCmd.Flags().IntVar(&improveCases, "cases", 0, "Number of test cases to sample")
	improveCmd.MarkFlagRequired("target")
	improveCmd.MarkFlagRequired("current")
	improveCmd.MarkFlagRequired("proposed")

	shadowCmd.Flags().StringVar(&shadowProduction, "production", "", "Production prompt version")
	shadowCmd.Flags().StringVar(&shadowCandidate, "candidate", "", "Shadow prompt version")
	shadowCmd.Flags().StringVar(&improveTarget, "target", "", "Prompt name")
	shadowCmd.MarkFlagRequired("production")
	shadowCmd.MarkFlagRequired("candidate")
	shadowCmd.MarkFlagRequired("target")

	shadowCmd.AddCommand(shadowStatsCmd)
}

// loadCorpus assembles the frozen corpus from the store and an optional
// YAML file.
func loadCorpus(db *store.Store) (*improvement.Corpus, error) {
	corpus := improvement.NewCorpus()
	if db != nil {
		if _, err := corpus.LoadFrom(db); err != nil {
			return nil, err
		}
	}
	if corpusPath != "" {
		n, err := corpus.LoadCorpusFile(corpusPath)
		if err != nil {
			return nil, err
		}
		if db != nil {
			if err := corpus.SaveTo(db); err != nil {
				return nil, err
			}
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("loaded %d cases from %s", n, corpusPath)))
	}
	return corpus, nil
}

// promptRunner renders a registered prompt version over a test case and
// completes it with the configured provider.
func promptRunner(reg *registry.PromptRegistry, client provider.LLMClient) improvement.VersionRunner {
	return improvement.VersionRunnerFunc(func(ctx context.Context, improvementType, targetID, version string, tc improvement.FrozenTestCase) (string, error) {
		p, ok := reg.Get(targetID, version)
		if !ok {
			return "", fmt.Errorf("unknown version %s@%s", targetID, version)
		}
		vars := map[string]string{"original_bullet": tc.InputContent, "context": ""}
		for k, v := range tc.Context {
			vars[k] = v
		}
		system, user, err := p.Render(vars)
		if err != nil {
			return "", err
		}
		return client.CompleteWithSystem(ctx, system, user)
	})
}

func runImprove(cmd *cobra.Command, args []string) error {
	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	corpus, err := loadCorpus(db)
	if err != nil {
		return err
	}
	if corpus.Len() == 0 {
		return fmt.Errorf("frozen corpus is empty; provide --corpus or freeze cases first")
	}

	client := provider.NewClient(cfg.LLM)
	pipe := improvement.NewPipeline(corpus, promptRunner(reg, client), evaluation.NewEngine(), cfg.Policy).
		WithRegistry(reg)
	pipe.SetMaxConcurrent(cfg.Limits.MaxConcurrentEvaluations)

	cases := improveCases
	if cases <= 0 {
		cases = cfg.Limits.DefaultSampleSize
	}

	candidate := improvement.NewCandidate(
		uuid.NewString(), "prompt", improveTarget,
		improveCurrent, improveProposed,
		fmt.Sprintf("CLI evaluation of %s@%s", improveTarget, improveProposed))

	cycle, err := pipe.RunCycle(cmd.Context(), []improvement.Candidate{candidate}, cases)
	if err != nil {
		return err
	}

	stored, _ := pipe.Candidate(candidate.CandidateID)
	fmt.Println(titleStyle.Render("Cycle " + cycle.CycleID))
	fmt.Printf("  baseline  %.3f\n", stored.BaselineScore)
	fmt.Printf("  candidate %.3f  (delta %+.3f, %d wins / %d losses over %d cases)\n",
		stored.CandidateScore, stored.ImprovementDelta, stored.Wins, stored.Losses, stored.TestCaseCount)

	if stored.Status == improvement.StatusPromoted {
		fmt.Println(goodStyle.Render("  PROMOTED: " + stored.DecisionReason))
	} else {
		fmt.Println(highStyle.Render("  REJECTED: " + stored.DecisionReason))
	}
	return nil
}

func runShadowStats(cmd *cobra.Command, args []string) error {
	if cfg.Store.Path == "" {
		return fmt.Errorf("no database configured; pass --db or set store.path")
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer closeStore(db)

	stats, err := db.ShadowHistoryStats()
	if err != nil {
		return err
	}
	if stats.Runs == 0 {
		fmt.Println(dimStyle.Render("no shadow runs recorded"))
		return nil
	}

	fmt.Println(titleStyle.Render("Shadow mode"))
	fmt.Printf("  runs        %d\n", stats.Runs)
	fmt.Printf("  shadow wins %d (%.0f%%)\n", stats.ShadowWins, stats.WinRate*100)
	fmt.Printf("  avg delta   %+.3f\n", stats.AverageImprovement)
	return nil
}

func runShadow(cmd *cobra.Command, args []string) error {
	input, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	client := provider.NewClient(cfg.LLM)
	runner := improvement.NewShadowRunner(func(ctx context.Context, version, content string) (string, error) {
		p, ok := reg.Get(improveTarget, version)
		if !ok {
			return "", fmt.Errorf("unknown version %s@%s", improveTarget, version)
		}
		system, user, err := p.Render(map[string]string{"original_bullet": content, "context": ""})
		if err != nil {
			return "", err
		}
		return client.CompleteWithSystem(ctx, system, user)
	}, evaluation.NewEngine())
	if db != nil {
		runner.WithStore(db)
	}

	result, err := runner.Run(cmd.Context(), shadowProduction, shadowCandidate, string(input))
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Production output"))
	fmt.Println(result.ProductionOutput)
	fmt.Println()
	c := result.Comparison
	fmt.Println(dimStyle.Render(fmt.Sprintf(
		"shadow comparison: production %.3f vs shadow %.3f (delta %+.3f, shadow better: %v)",
		c.ProductionScore, c.ShadowScore, c.ShadowImprovement, c.ShadowBetter)))
	return nil
}
