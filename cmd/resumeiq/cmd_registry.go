package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"resumeiq/internal/registry"
	"resumeiq/internal/store"
)

var rollbackTo string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and govern the prompt and model registries",
	Long: `Inspect and govern the prompt and model registries.

The registry is rebuilt from the built-in prompt catalog on every run.
Promote and rollback decisions are recorded durably in the audit log
(see "registry history") but the production pointer itself resets to
the catalog default on the next invocation; durable version storage
lives outside this tool.`,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all prompts and their production versions",
	RunE:  runRegistryList,
}

var registryShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show all versions of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryShow,
}

var registryPromoteCmd = &cobra.Command{
	Use:   "promote [name] [version]",
	Short: "Promote a prompt version to production",
	Long: `Promotes a registered version to production. Promotion is gated:
versions carrying evaluation scores must clear the quality and safety
thresholds. The previous production version is deprecated.`,
	Args: cobra.ExactArgs(2),
	RunE: runRegistryPromote,
}

var registryRollbackCmd = &cobra.Command{
	Use:   "rollback [name]",
	Short: "Roll production back to the previous version",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryRollback,
}

var registryHistoryCmd = &cobra.Command{
	Use:   "history [name]",
	Short: "Show the audit trail for a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryHistory,
}

var registryModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered models",
	RunE:  runRegistryModels,
}

func init() {
	registryRollbackCmd.Flags().StringVar(&rollbackTo, "to", "", "Explicit version to roll back to")

	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryPromoteCmd)
	registryCmd.AddCommand(registryRollbackCmd)
	registryCmd.AddCommand(registryHistoryCmd)
	registryCmd.AddCommand(registryModelsCmd)
}

// openPromptRegistry builds the seeded registry, attaching the durable
// audit sink when a database is configured.
func openPromptRegistry() (*registry.PromptRegistry, *store.Store, error) {
	reg := registry.NewPromptRegistry(cfg.Policy)

	var db *store.Store
	if cfg.Store.Path != "" {
		var err error
		db, err = store.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		reg.WithAuditStore(db)
	}

	if err := registry.SeedProductionPrompts(reg); err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	return reg, db, nil
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	names := reg.Names()
	sort.Strings(names)

	fmt.Println(titleStyle.Render("Prompt registry"))
	for _, name := range names {
		prod, ok := reg.Production(name)
		if !ok {
			fmt.Printf("  %-28s %s\n", name, dimStyle.Render("no production version"))
			continue
		}
		fmt.Printf("  %-28s %s  %s\n", name, prod.Version,
			dimStyle.Render(fmt.Sprintf("quality %.2f, safety %.2f", prod.QualityScore, prod.SafetyScore)))
	}
	return nil
}

func runRegistryShow(cmd *cobra.Command, args []string) error {
	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	versions := reg.ListVersions(args[0])
	if len(versions) == 0 {
		return fmt.Errorf("unknown prompt %q", args[0])
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })

	fmt.Println(titleStyle.Render(args[0]))
	for _, v := range versions {
		fmt.Printf("  %s  %-11s  hash %s", v.Version, v.Status, v.ContentHash)
		if v.HasScores() {
			fmt.Printf("  %s", dimStyle.Render(fmt.Sprintf("quality %.2f, safety %.2f", v.QualityScore, v.SafetyScore)))
		}
		fmt.Println()
	}
	return nil
}

func runRegistryPromote(cmd *cobra.Command, args []string) error {
	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	if err := reg.Promote(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("%s %s@%s is now production\n", goodStyle.Render("Promoted:"), args[0], args[1])
	return nil
}

func runRegistryRollback(cmd *cobra.Command, args []string) error {
	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	version, err := reg.Rollback(args[0], rollbackTo)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s is back on %s\n", goodStyle.Render("Rolled back:"), args[0], version)
	return nil
}

func runRegistryHistory(cmd *cobra.Command, args []string) error {
	reg, db, err := openPromptRegistry()
	if err != nil {
		return err
	}
	defer closeStore(db)

	events := reg.History(args[0])
	if len(events) == 0 {
		fmt.Println(dimStyle.Render("no recorded events"))
		return nil
	}
	for _, e := range events {
		fmt.Println("  " + e.String())
	}
	return nil
}

func runRegistryModels(cmd *cobra.Command, args []string) error {
	models := registry.NewModelRegistry()

	fmt.Println(titleStyle.Render("Model registry"))
	for _, m := range models.List() {
		fmt.Printf("  %-30s %-10s %-9s $%.2f/$%.2f per 1M  %s\n",
			m.ModelID, m.Provider, m.Tier, m.CostPer1MInput, m.CostPer1MOutput,
			dimStyle.Render(fmt.Sprintf("fallbacks: %v", models.FallbackChain(m.ModelID))))
	}
	return nil
}

func closeStore(db *store.Store) {
	if db != nil {
		db.Close()
	}
}
