package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario file without running anything",
	Long: `Validate loads the scenario and runs the full eager validation pass:
state definitions, transition matrix stochasticity, arm references,
distribution parameters and analysis sections. Exits non-zero on the first
problem found.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario()

		color.New(color.FgGreen).Printf("OK: %s\n", sc.Name)
		fmt.Printf("  States: %d, arms: %d, cycles: %d\n", len(sc.Params.States), len(sc.Params.Arms), sc.Params.Cycles)
		sections := []struct {
			name    string
			present bool
		}{
			{"tornado", sc.Tornado != nil},
			{"sweep", sc.Sweep != nil},
			{"psa", sc.PSA != nil},
			{"voi", sc.VOI != nil},
			{"budget", sc.Budget != nil},
		}
		for _, s := range sections {
			if s.present {
				fmt.Printf("  Section %s: present\n", s.name)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
