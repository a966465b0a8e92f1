package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tally/internal/app"
	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/report"
	"github.com/balkashynov/tally/internal/timer"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show billed time per project and a weekly timesheet",
	Long: `Show tracked time and cost per project for a period, plus the weekly
timesheet when the period is a single week. Running timers count with their
live elapsed time.

Dates accept yyyy-mm-dd, dd/mm/yyyy, today or yesterday; --to is inclusive.

Example output:
  Project                     Time      Rate        Cost
  --------------------------------------------------------
  Acme / API              01:30:00     80.00      120.00
  Acme / Website          01:30:00     60.00       90.00
  --------------------------------------------------------
  Total                   03:00:00                210.00`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		now := localNow(a.Engine)

		fromFlag, _ := cmd.Flags().GetString("from")
		toFlag, _ := cmd.Flags().GetString("to")
		lastWeek, _ := cmd.Flags().GetBool("last")
		weekly := fromFlag == "" && toFlag == ""

		var byFlag string
		if cmd.Flags().Changed("by") {
			byFlag, _ = cmd.Flags().GetString("by")
		}

		from, to, err := dateRange(fromFlag, toFlag, now)
		if err != nil {
			return err
		}
		if weekly && lastWeek {
			from, to = from.AddDate(0, 0, -7), from
		}

		intervals, err := a.Engine.List(ctx, timer.ListFilter{From: from, To: to})
		if err != nil {
			return err
		}
		projects, err := a.Engine.Projects(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "📊 %s to %s\n\n", from.Format("Mon Jan 2, 2006"), to.AddDate(0, 0, -1).Format("Mon Jan 2, 2006"))
		report.WriteSummary(out, report.Summarize(intervals, projects, now))

		if byFlag != "" {
			by, err := report.ParseGrouping(byFlag)
			if err != nil {
				return err
			}
			writeGroups(out, report.GroupBy(intervals, by, now), projects, now)
		}

		if weekly && len(intervals) > 0 {
			fmt.Fprintln(out)
			report.WriteTimesheet(out, report.BuildTimesheet(intervals, projects, from, now))
		}
		return nil
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stopped intervals as CSV",
	Long: `Export stopped and manual intervals in a date range as CSV, one row per
interval with its duration, rate and cost. Defaults to the current week.

Examples:
  tally export --from 2024-11-01 --to 2024-11-30 -o november.csv
  tally export > week.csv`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		now := localNow(a.Engine)

		fromFlag, _ := cmd.Flags().GetString("from")
		toFlag, _ := cmd.Flags().GetString("to")
		from, to, err := dateRange(fromFlag, toFlag, now)
		if err != nil {
			return err
		}

		intervals, err := a.Engine.Closed(ctx, from, to)
		if err != nil {
			return err
		}
		projects, err := a.Engine.Projects(ctx)
		if err != nil {
			return err
		}
		rows := report.Rows(intervals, projects, now)

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" || outPath == "-" {
			return report.WriteCSV(cmd.OutOrStdout(), rows)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		if err := report.WriteCSV(f, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "📄 Exported %d interval(s) to %s\n", len(rows), outPath)
		return nil
	}),
}

// writeGroups prints each bucket with its intervals.
func writeGroups(out io.Writer, groups []report.Group, projects []models.Project, now time.Time) {
	byID := projectsByID(projects)
	for _, g := range groups {
		fmt.Fprintf(out, "\n%s  (%s)\n", g.Title, timer.FormatDuration(g.Seconds))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, iv := range g.Intervals {
			p := byID[iv.ProjectID]
			end := "running"
			if iv.EndTime != nil {
				end = iv.EndTime.In(now.Location()).Format("15:04")
			}
			fmt.Fprintf(out, "  %s-%-7s %-28s %s  %s\n",
				iv.StartTime.In(now.Location()).Format("15:04"), end,
				truncate(p.Label(), 28),
				timer.FormatDuration(timer.DurationOf(iv, now)),
				truncate(iv.NoteText(), 30))
		}
	}
}

func init() {
	reportCmd.Flags().Bool("week", true, "Report the current week (default when no dates are given)")
	reportCmd.Flags().Bool("last", false, "With --week, report the previous week instead")
	reportCmd.Flags().String("from", "", "First day of the report")
	reportCmd.Flags().String("to", "", "Last day of the report (inclusive)")
	reportCmd.Flags().String("by", "day", "Also list intervals grouped by: day, week")
	reportCmd.MarkFlagsMutuallyExclusive("week", "from")
	reportCmd.MarkFlagsMutuallyExclusive("week", "to")

	exportCmd.Flags().String("from", "", "First day to export")
	exportCmd.Flags().String("to", "", "Last day to export (inclusive)")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}
