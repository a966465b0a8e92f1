package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tally/internal/app"
	"github.com/balkashynov/tally/internal/parser"
	"github.com/balkashynov/tally/internal/timer"
)

var logCmd = &cobra.Command{
	Use:   "log <project>",
	Short: "Log time you forgot to track",
	Long: `Record a finished interval by hand.

Times accept dd/mm/yyyy HH:MM, HH:MM (today), now, or "X minutes|hours|days ago".
Give --to or --duration.

Examples:
  tally log 3 --from 09:00 --to 10:30
  tally log Website --from "14/11/2024 13:00" --duration 45m --note "call"
  tally log 3 --from "2 hours ago" --to now`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		project, err := resolveProject(ctx, a.Engine, args[0])
		if err != nil {
			return err
		}

		now := localNow(a.Engine)
		fromFlag, _ := cmd.Flags().GetString("from")
		toFlag, _ := cmd.Flags().GetString("to")
		durationFlag, _ := cmd.Flags().GetString("duration")
		note, _ := cmd.Flags().GetString("note")

		if fromFlag == "" {
			return fmt.Errorf("--from is required")
		}
		if (toFlag == "") == (durationFlag == "") {
			return fmt.Errorf("give exactly one of --to or --duration")
		}

		start, err := parser.ParseWhen(fromFlag, now)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}

		var end time.Time
		if toFlag != "" {
			if end, err = parser.ParseWhen(toFlag, now); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
		} else {
			d, err := time.ParseDuration(durationFlag)
			if err != nil {
				return fmt.Errorf("invalid --duration '%s'", durationFlag)
			}
			end = start.Add(d)
		}

		iv, err := a.Engine.CreateManualEntry(ctx, project.ID, start, end, note)
		if err != nil {
			return err
		}

		d := timer.DurationOf(*iv, a.Engine.Now())
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged %s on %s (interval #%d)\n", timer.FormatDuration(d), project.Label(), iv.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "%s → %s · cost %s\n",
			parser.FormatWhen(iv.StartTime, now), parser.FormatWhen(*iv.EndTime, now),
			timer.FormatCost(timer.Cost(d, project.EffectiveRate())))
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <interval-id>",
	Short: "Change an interval's times or notes",
	Long: `Change the start, end or notes of an interval. The duration is recomputed.
A running interval's end can only be set by stopping it.

Examples:
  tally edit 17 --from 09:15
  tally edit 17 --to "14/11/2024 18:00"
  tally edit 17 --note ""   # clear notes`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		id, err := parseID("interval", args[0])
		if err != nil {
			return err
		}

		now := localNow(a.Engine)
		var upd timer.Update

		if cmd.Flags().Changed("from") {
			fromFlag, _ := cmd.Flags().GetString("from")
			start, err := parser.ParseWhen(fromFlag, now)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			upd.StartTime = &start
		}
		if cmd.Flags().Changed("to") {
			toFlag, _ := cmd.Flags().GetString("to")
			end, err := parser.ParseWhen(toFlag, now)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			upd.EndTime = &end
		}
		if cmd.Flags().Changed("note") {
			note, _ := cmd.Flags().GetString("note")
			upd.Notes = &note
		}
		if upd.StartTime == nil && upd.EndTime == nil && upd.Notes == nil {
			return fmt.Errorf("nothing to change, use --from, --to or --note")
		}

		iv, err := a.Engine.UpdateInterval(cmd.Context(), id, upd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✏️  Updated interval #%d\n", iv.ID)
		if iv.IsRunning {
			fmt.Fprintf(out, "Running since %s\n", parser.FormatWhen(iv.StartTime, now))
		} else {
			fmt.Fprintf(out, "%s → %s (%s)\n",
				parser.FormatWhen(iv.StartTime, now), parser.FormatWhen(*iv.EndTime, now),
				timer.FormatDuration(timer.DurationOf(*iv, now)))
		}
		if iv.HasNotes() {
			fmt.Fprintf(out, "Notes: %s\n", iv.NoteText())
		}
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:     "rm <interval-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a stopped interval",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		id, err := parseID("interval", args[0])
		if err != nil {
			return err
		}
		if err := a.Engine.DeleteInterval(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted interval #%d\n", id)
		return nil
	}),
}

func init() {
	logCmd.Flags().String("from", "", "Start time (required)")
	logCmd.Flags().String("to", "", "End time")
	logCmd.Flags().String("duration", "", "Length instead of --to, e.g. 1h30m")
	logCmd.Flags().String("note", "", "Notes for the interval")

	editCmd.Flags().String("from", "", "New start time")
	editCmd.Flags().String("to", "", "New end time")
	editCmd.Flags().String("note", "", "New notes (empty clears them)")
}
