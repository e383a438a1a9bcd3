package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/htakit/ceam/budget"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget impact projection for introducing the new treatment",
	Long: `Budget projects annual and cumulative spend over a short horizon,
comparing the current treatment mix against the mix after the new
treatment's uptake. Uses the scenario's budget section; results are
undiscounted unless the section sets a discount rate.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()
		if sc.Budget == nil {
			fmt.Fprintln(os.Stderr, "Error: scenario has no budget section.")
			os.Exit(1)
		}

		res, err := budget.Run(*sc.Budget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		color.New(color.Bold).Printf("Budget impact of %s over %d years\n", sc.Budget.NewTreatment, sc.Budget.HorizonYears)
		fmt.Printf("\n%4s %14s %8s %16s %16s %14s %14s\n",
			"Year", "Eligible", "Share", "Current mix", "New mix", "Impact", "Cumulative")
		for i, y := range res.Years {
			fmt.Printf("%4d %14.0f %7.1f%% %16.2f %16.2f %14.2f %14.2f\n",
				y.Year, y.EligiblePatients, y.NewShare*100, y.CostCurrentMix, y.CostNewMix, y.Impact, res.Cumulative[i])
		}
		fmt.Printf("\n  Total impact:   %14.2f\n", res.TotalImpact)
		fmt.Printf("  Average annual: %14.2f\n", res.AverageAnnual)
		fmt.Printf("  Peak:           %14.2f (year %d)\n", res.PeakImpact, res.PeakYear)
		writeOut(res)
	},
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}
