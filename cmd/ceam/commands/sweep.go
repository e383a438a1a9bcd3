package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep one parameter over a value list",
	Long: `Sweep reruns the comparison at each value of a single parameter,
holding everything else at base-case. The scenario file's sweep section
names the parameter and the values; points print in input order for
plotting.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()
		if sc.Sweep == nil {
			fmt.Fprintln(os.Stderr, "Error: scenario has no sweep section.")
			os.Exit(1)
		}
		pipe := pipelineFor(sc)

		res, err := pipe.RunSweep(context.Background(), sc.Params, sc.Sweep.Parameter, sc.Sweep.Values)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		color.New(color.Bold).Printf("Sweep over %s\n", res.Parameter)
		fmt.Printf("\n%14s %14s %14s %s\n", "Value", "ICER", "NMB", "Conclusion")
		for _, pt := range res.Points {
			icer := "undefined"
			if pt.ICER.ICERDefined {
				icer = fmt.Sprintf("%.2f", pt.ICER.ICER)
			}
			fmt.Printf("%14.4f %14s %14.2f %s\n", pt.Value, icer, pt.ICER.NMB, pt.ICER.Conclusion)
		}
		writeOut(res)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
