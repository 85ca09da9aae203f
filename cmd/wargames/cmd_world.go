package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/war-games/go-engine/internal/service"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/store"
)

var (
	jsonOut     bool
	deltaPairs  []string
	historyLast int
)

var interveneCmd = &cobra.Command{
	Use:   "intervene <event-id> <headline>",
	Short: "Edit an event headline and propagate the consequences",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := seed(cmd.Context(), cfg, a.svc); err != nil {
			return err
		}

		res, err := a.svc.Intervene(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printResult(cmd, args[0], res)
	},
}

var propagateCmd = &cobra.Command{
	Use:   "propagate <event-id>",
	Short: "Apply an explicit state delta at an event and propagate it",
	Long: `Apply an explicit delta instead of one extracted from a headline.

Example:
  wargames propagate sarajevo --delta war_escalation=0.3 --delta casualties_expected=1000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := parseDelta(deltaPairs)
		if err != nil {
			return err
		}
		a, err := openApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := seed(cmd.Context(), cfg, a.svc); err != nil {
			return err
		}

		res, err := a.svc.Propagate(cmd.Context(), args[0], delta)
		if err != nil {
			return err
		}
		return printResult(cmd, args[0], res)
	},
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Score the active world against its goals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := seed(cmd.Context(), cfg, a.svc); err != nil {
			return err
		}

		scores, err := a.svc.Scores(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), scores)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "GOAL\tSCORE\tPASSED\tSKIPPED")
		for _, g := range scores {
			skipped := 0
			for _, m := range g.Metrics {
				if m.Skipped {
					skipped++
				}
			}
			fmt.Fprintf(tw, "%s\t%.3f\t%t\t%d\n", g.GoalID, g.Score, g.Passed, skipped)
		}
		return tw.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List world versions and recent provenance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.svc.Versions(cmd.Context(), historyLast)
		if err != nil {
			return err
		}
		entries, err := a.svc.Provenance(historyLast)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"versions":   versions,
				"provenance": entries,
			})
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tPARENT\tTRIGGER\tEVENTS\tEDGES\tACTIVE\tCREATED")
		for _, v := range versions {
			active := ""
			if v.Active {
				active = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				shortID(v.VersionID), shortID(v.ParentID), v.Trigger, v.Events, v.Edges, active,
				v.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "VERSION\tEVENT\tTRIGGER\tDECISION\tREASON")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				shortID(e.VersionID), e.EventID, e.TriggerType, e.Decision, e.Reason)
		}
		return tw.Flush()
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <version-id>",
	Short: "Make an earlier world version active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		w, err := a.svc.Rollback(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active version %s (%d events, %d edges)\n",
			args[0], len(w.Nodes), len(w.Edges))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <world.json>",
	Short: "Validate a world file and save it as the active version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := store.ReadWorldFile(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.svc.Import(cmd.Context(), w)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %s\n", args[0], id)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <world.json>",
	Short: "Write the active world to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		w, err := a.svc.World(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.WriteWorldFile(args[0], w); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events to %s\n", len(w.Nodes), args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{interveneCmd, propagateCmd, scoresCmd, historyCmd} {
		c.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of a summary")
	}
	propagateCmd.Flags().StringArrayVarP(&deltaPairs, "delta", "d", nil, "dimension=value, repeatable")
	_ = propagateCmd.MarkFlagRequired("delta")
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 20, "number of rows to show")
}

// printResult prints a one-line summary, or the whole result with --json.
func printResult(cmd *cobra.Command, eventID string, res service.Result) error {
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), res)
	}
	out := cmd.OutOrStdout()
	ev := res.World.Nodes[eventID]
	fmt.Fprintf(out, "%s: %s\n", res.Decision.Action, res.Decision.Reason)
	fmt.Fprintf(out, "  title:   %s\n", ev.Title)
	if res.Tag != "" {
		fmt.Fprintf(out, "  tag:     %s (shift %+.3f)\n", res.Tag, res.Shift)
	}
	fmt.Fprintf(out, "  visited: %d events, %d changed\n", res.Metrics.Visited, len(res.Metrics.Changed))
	if res.VersionID != "" {
		fmt.Fprintf(out, "  version: %s\n", res.VersionID)
	}
	if len(res.Rewrites) > 0 {
		fmt.Fprintf(out, "  rewrites: %d (version %s)\n", len(res.Rewrites), shortID(res.RewriteVersionID))
	}
	if res.RewriteError != "" {
		fmt.Fprintf(out, "  rewrite error: %s\n", res.RewriteError)
	}
	return nil
}

// parseDelta turns dimension=value pairs into a delta. "frontline" takes
// a free-form region name.
func parseDelta(pairs []string) (state.Delta, error) {
	var d state.Delta
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return d, fmt.Errorf("delta %q: want dimension=value", p)
		}
		k = strings.TrimSpace(k)
		if k == "frontline" || k == "frontline_position" {
			d.Frontline = strings.TrimSpace(v)
			continue
		}
		dim, ok := state.ParseDimension(k)
		if !ok {
			return d, fmt.Errorf("delta %q: unknown dimension %q", p, k)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return d, fmt.Errorf("delta %q: %w", p, err)
		}
		d.Set(dim, x)
	}
	return d, nil
}
