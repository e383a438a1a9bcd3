package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate every arm and report the incremental comparison",
	Long: `Run simulates the cohort through each treatment arm's transition
matrix, then compares intervention against comparator: incremental cost,
incremental QALYs, the ICER (or dominance verdict) and net monetary
benefit at the willingness-to-pay threshold.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()
		pipe := pipelineFor(sc)

		res, err := pipe.Run(sc.Params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		color.New(color.Bold).Printf("Scenario: %s\n", sc.Name)
		fmt.Printf("\n%-14s %14s %12s %12s\n", "Arm", "Cost", "QALYs", "Life years")
		fmt.Printf("%-14s %14.2f %12.4f %12.4f\n",
			res.Intervention.Arm, res.Intervention.TotalCost, res.Intervention.TotalQALYs, res.Intervention.LifeYears)
		fmt.Printf("%-14s %14.2f %12.4f %12.4f\n",
			res.Comparator.Arm, res.Comparator.TotalCost, res.Comparator.TotalQALYs, res.Comparator.LifeYears)

		fmt.Printf("\n%s vs %s:\n", res.Intervention.Arm, res.Comparator.Arm)
		printICER(res.ICER)
		writeOut(res)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
