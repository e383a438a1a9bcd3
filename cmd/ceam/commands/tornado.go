package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/htakit/ceam/sensitivity"
)

var tornadoCmd = &cobra.Command{
	Use:   "tornado",
	Short: "One-way deterministic sensitivity analysis",
	Long: `Tornado perturbs each bounded parameter to its low and high value in
turn, holding everything else at base-case, and ranks parameters by how far
they swing the chosen metric (ICER or NMB). The scenario file's tornado
section declares the bounds.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()
		if sc.Tornado == nil {
			fmt.Fprintln(os.Stderr, "Error: scenario has no tornado section.")
			os.Exit(1)
		}
		pipe := pipelineFor(sc)

		res, err := pipe.RunTornado(context.Background(), sc.Params, sensitivity.TornadoOptions{
			Metric:  sc.Tornado.Metric,
			Bounds:  sc.Tornado.Bounds,
			Workers: workersFlag,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		color.New(color.Bold).Printf("Tornado (%s), base ", res.Metric)
		if res.Base.ICERDefined {
			color.New(color.Bold).Printf("ICER %.2f\n", res.Base.ICER)
		} else {
			color.New(color.Bold).Printf("ICER undefined (%s)\n", res.Base.Dominance)
		}
		fmt.Printf("\n%-28s %14s %14s %14s\n", "Parameter", "Low", "High", "Swing")
		for _, e := range res.Entries {
			if !e.Defined {
				fmt.Printf("%-28s %14s %14s %14s\n", e.Parameter, fmtBound(e.LowValue, e.LowDefined), fmtBound(e.HighValue, e.HighDefined), "undefined")
				continue
			}
			fmt.Printf("%-28s %14.2f %14.2f %14.2f\n", e.Parameter, e.LowValue, e.HighValue, e.Swing)
		}
		writeOut(res)
	},
}

func fmtBound(v float64, defined bool) string {
	if !defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", v)
}

func init() {
	rootCmd.AddCommand(tornadoCmd)
}
