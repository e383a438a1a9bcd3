package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/htakit/ceam/core"
	"github.com/htakit/ceam/loader"
	"github.com/htakit/ceam/sensitivity"
)

// mustLoadScenario loads the scenario named by -f, exiting on failure.
func mustLoadScenario() *loader.Scenario {
	if scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "Error: scenario file must be specified with -f or --file.")
		os.Exit(1)
	}
	sc, err := loader.Load(scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return sc
}

// pipelineFor builds the analysis pipeline from the scenario, applying any
// --threshold override.
func pipelineFor(sc *loader.Scenario) *sensitivity.Pipeline {
	threshold := sc.Threshold
	if thresholdFlag > 0 {
		threshold = thresholdFlag
	}
	return &sensitivity.Pipeline{
		Intervention: sc.Intervention,
		Comparator:   sc.Comparator,
		Threshold:    threshold,
	}
}

// writeOut marshals v as indented JSON to the --out path, or does nothing
// when no path was given.
func writeOut(v any) {
	if outFile == "" {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outFile, append(data, '\n'), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outFile, err)
		os.Exit(1)
	}
	fmt.Printf("Results written to %s\n", outFile)
}

// printICER renders the verdict line of an ICER result.
func printICER(r *core.ICERResult) {
	fmt.Printf("  Incremental cost:  %12.2f\n", r.DeltaCost)
	fmt.Printf("  Incremental QALYs: %12.4f\n", r.DeltaQALY)
	fmt.Printf("  Incremental LYs:   %12.4f\n", r.DeltaLY)
	if r.ICERDefined {
		fmt.Printf("  ICER:              %12.2f per QALY (quadrant %s)\n", r.ICER, r.Quadrant)
	} else {
		fmt.Printf("  ICER:              undefined (quadrant %s, %s)\n", r.Quadrant, r.Dominance)
	}
	fmt.Printf("  NMB @ %.0f:     %12.2f\n", r.Threshold, r.NMB)

	verdict := color.New(color.FgYellow)
	switch r.Conclusion {
	case core.CostEffective:
		verdict = color.New(color.FgGreen, color.Bold)
	case core.NotCostEffective:
		verdict = color.New(color.FgRed, color.Bold)
	}
	verdict.Printf("  Conclusion: %s\n", r.Conclusion)
}
