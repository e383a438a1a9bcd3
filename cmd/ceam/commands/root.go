package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build metadata, stamped via -ldflags.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var (
	scenarioPath  string
	thresholdFlag float64
	workersFlag   int
	outFile       string
)

var rootCmd = &cobra.Command{
	Use:   "ceam",
	Short: "CEAM is a cost-effectiveness analysis engine for Markov cohort models",
	Long: `CEAM runs health-economic decision-analytic models: cohort Markov
simulations per treatment arm, incremental cost-effectiveness (ICER)
comparison, deterministic (tornado) and probabilistic (PSA) sensitivity
analysis, value-of-information metrics and budget impact projections.

Scenarios are YAML files; results print as human summaries and can be
written as JSON with --out for downstream report tooling.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "file", "f", "", "Path to the scenario YAML file (required by most commands)")
	rootCmd.PersistentFlags().Float64Var(&thresholdFlag, "threshold", 0, "Willingness-to-pay threshold override (cost per QALY)")
	rootCmd.PersistentFlags().IntVar(&workersFlag, "workers", 0, "Parallel workers for batch analyses (0 = sequential)")
	rootCmd.PersistentFlags().StringVar(&outFile, "out", "", "Write full results as JSON to this path")
}
