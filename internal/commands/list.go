package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tally/internal/app"
	"github.com/balkashynov/tally/internal/parser"
	"github.com/balkashynov/tally/internal/timer"
	"github.com/balkashynov/tally/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List intervals",
	Long:    "Browse intervals, newest first, with optional filters for project and date range. Use --no-ui for plain text.",
	Args:    cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		now := localNow(a.Engine)

		var filter timer.ListFilter
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		if projectFlag, _ := cmd.Flags().GetString("project"); projectFlag != "" {
			project, err := resolveProject(ctx, a.Engine, projectFlag)
			if err != nil {
				return err
			}
			filter.ProjectID = project.ID
		}

		today, _ := cmd.Flags().GetBool("today")
		week, _ := cmd.Flags().GetBool("week")
		switch {
		case today:
			filter.From = parser.StartOfDay(now)
			filter.To = filter.From.AddDate(0, 0, 1)
		case week:
			filter.From = parser.StartOfWeek(now)
			filter.To = filter.From.AddDate(0, 0, 7)
		}

		intervals, err := a.Engine.List(ctx, filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(intervals) == 0 {
			fmt.Fprintln(out, "No intervals found. Use 'tally start <project>' to track your first one.")
			return nil
		}

		projects, err := a.Engine.Projects(ctx)
		if err != nil {
			return err
		}

		if noUI, _ := cmd.Flags().GetBool("no-ui"); !noUI {
			return tui.RunListTUI(ctx, a.Engine, intervals, projects, now)
		}
		byID := projectsByID(projects)

		// Print table header
		fmt.Fprintf(out, "%-5s %-25s %-16s %-16s %-9s %9s  %s\n", "ID", "PROJECT", "START", "END", "DURATION", "COST", "NOTES")
		fmt.Fprintln(out, strings.Repeat("-", 100))

		for _, iv := range intervals {
			p := byID[iv.ProjectID]
			d := timer.DurationOf(iv, now)

			end := "running"
			if iv.EndTime != nil {
				end = parser.FormatWhen(*iv.EndTime, now)
			}
			notes := iv.NoteText()
			if iv.IsManual {
				notes = "[manual] " + notes
			}

			fmt.Fprintf(out, "%-5d %-25s %-16s %-16s %-9s %9s  %s\n",
				iv.ID,
				truncate(p.Label(), 25),
				parser.FormatWhen(iv.StartTime, now),
				end,
				timer.FormatDuration(d),
				timer.FormatCost(timer.Cost(d, p.EffectiveRate())),
				truncate(strings.TrimSpace(notes), 30))
		}
		return nil
	}),
}

func init() {
	listCmd.Flags().StringP("project", "p", "", "Filter by project")
	listCmd.Flags().IntP("limit", "n", 20, "Show at most this many intervals (0 for all)")
	listCmd.Flags().Bool("today", false, "Show only today's intervals")
	listCmd.Flags().Bool("week", false, "Show this week's intervals")
	listCmd.Flags().Bool("no-ui", false, "Simple text output")
}
