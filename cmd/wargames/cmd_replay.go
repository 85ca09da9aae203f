package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/war-games/go-engine/internal/replay"
)

var fixturePath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a fixture of interventions in memory and compare outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := replay.LoadFixture(fixturePath)
		if err != nil {
			return err
		}
		// Fixture settings win over the config file.
		opts, err := engineOptions(cfg)
		if err != nil {
			return err
		}
		fixtureConfig := f.Config.ToReplayConfig()
		if f.Config.DecayLambda > 0 {
			opts.Propagation.DecayLambda = fixtureConfig.Engine.Propagation.DecayLambda
			opts.Propagation.NoDecay = false
		}
		if f.Config.TagThreshold > 0 {
			opts.Threshold = fixtureConfig.Engine.Threshold
		}

		results, final := replay.Replay(f.World, f.ToInterventions(), replay.ReplayConfig{Engine: opts})
		summary := replay.Summarize(results, f.Expected, final)
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"results": results,
				"summary": summary,
			})
		}

		printComparison(cmd.OutOrStdout(), results, f.Expected)
		if n := len(summary.Mismatches); n > 0 {
			return fmt.Errorf("%d mismatches against %s", n, fixturePath)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "path to a JSON fixture")
	replayCmd.Flags().BoolVar(&jsonOut, "json", false, "print results and summary as JSON")
	_ = replayCmd.MarkFlagRequired("fixture")
}

// printComparison writes one row per intervention and a summary line.
func printComparison(out io.Writer, results []replay.ReplayResult, expected []replay.FixtureExpected) {
	fmt.Fprintf(out, "%-14s| %-14s| %-14s| %-6s| %s\n", "Event", "Expected", "Replayed", "Tag", "Match")
	fmt.Fprintf(out, "%-14s+%-15s+%-15s+%-7s+%s\n",
		"--------------", "---------------", "---------------", "-------", "------")

	matches := 0
	for i, r := range results {
		exp := ""
		match := "OK"
		if i < len(expected) {
			exp = expected[i].Action
			if exp != "" && exp != r.Action {
				match = "DIFF"
			}
			if expected[i].Tag != "" && expected[i].Tag != string(r.Tag) {
				match = "DIFF"
			}
		}
		if match == "OK" {
			matches++
		}
		fmt.Fprintf(out, "%-14s| %-14s| %-14s| %-6s| %s\n", r.EventID, exp, r.Action, r.Tag, match)
	}

	fmt.Fprintf(out, "\nSummary: %d total, %d match, %d diverge\n", len(results), matches, len(results)-matches)
}
