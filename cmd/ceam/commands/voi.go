package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/htakit/ceam/sensitivity"
)

var voiCmd = &cobra.Command{
	Use:   "voi",
	Short: "Value-of-information analysis (EVPI and per-parameter EVPPI)",
	Long: `VOI runs a PSA with parameter retention, then computes the expected
value of perfect information: what eliminating all uncertainty (EVPI), or
uncertainty in one parameter at a time (EVPPI), would be worth per patient
and across the decision population. Requires the scenario's psa and voi
sections.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()
		if sc.PSA == nil || sc.VOI == nil {
			fmt.Fprintln(os.Stderr, "Error: voi requires both psa and voi scenario sections.")
			os.Exit(1)
		}
		pipe := pipelineFor(sc)

		psa, err := pipe.RunPSA(context.Background(), sc.Params, sensitivity.PSAOptions{
			Iterations:    sc.PSA.Iterations,
			Seed:          sc.PSA.Seed,
			Distributions: sc.PSA.Distributions,
			Workers:       workersFlag,
			KeepParams:    true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		opts := sensitivity.VOIOptions{
			Threshold:            pipe.Threshold,
			PopulationSize:       sc.VOI.Population,
			DecisionHorizonYears: sc.VOI.HorizonYears,
			DiscountRate:         sc.VOI.DiscountRate,
		}
		intervention, comparator := sc.Intervention, sc.Comparator
		if intervention == "" && len(sc.Params.Arms) >= 2 {
			intervention, comparator = sc.Params.Arms[0].Name, sc.Params.Arms[1].Name
		}
		evpi, err := sensitivity.ComputeEVPI(psa, intervention, comparator, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		evppi, err := sensitivity.ComputeEVPPI(psa, evpi, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		color.New(color.Bold).Printf("EVPI @ threshold %.0f\n", opts.Threshold)
		fmt.Printf("  Per patient:        %14.2f\n", evpi.PerPatient)
		fmt.Printf("  Population:         %14.2f\n", evpi.Population)
		fmt.Printf("  Over horizon:       %14.2f\n", evpi.Horizon)
		fmt.Printf("  Optimal strategy:   %s (P = %.3f)\n", evpi.OptimalStrategy, evpi.ProbabilityOptimal[evpi.OptimalStrategy])

		fmt.Printf("\n%-28s %14s %14s %10s\n", "Parameter", "EVPPI/patient", "Population", "Share")
		for _, e := range evppi {
			fmt.Printf("%-28s %14.2f %14.2f %9.1f%%\n", e.Parameter, e.PerPatient, e.Population, e.ContributionPct)
		}
		writeOut(sensitivity.VOISummary{EVPI: evpi, EVPPI: evppi, ICERSummary: psa.ICERSummary})
	},
}

func init() {
	rootCmd.AddCommand(voiCmd)
}
