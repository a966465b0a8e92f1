package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tally/internal/app"
	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/parser"
	"github.com/balkashynov/tally/internal/timer"
	"github.com/balkashynov/tally/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start <project>",
	Short: "Start tracking time on a project",
	Long: `Start tracking time on a project. Opens the live timer by default, use --no-ui for a simple start.

Examples:
  tally start 3                      # Start with the live timer
  tally start Website --note "hero"  # Start with notes
  tally start 3 --no-ui              # Start without UI`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		project, err := resolveProject(ctx, a.Engine, args[0])
		if err != nil {
			return err
		}

		note, _ := cmd.Flags().GetString("note")
		iv, err := a.Engine.Start(ctx, project.ID, note)
		if err != nil {
			return err
		}

		return showStarted(cmd, a, iv, project, "Started")
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop [interval-id]",
	Short: "Stop a running timer",
	Long: `Stop a running timer by interval ID or by project. With neither, stops
the only running timer.

Examples:
  tally stop 17
  tally stop --project Website
  tally stop`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		projectFlag, _ := cmd.Flags().GetString("project")

		var (
			iv  *models.Interval
			err error
		)
		switch {
		case len(args) == 1 && projectFlag != "":
			return fmt.Errorf("give an interval ID or --project, not both")
		case len(args) == 1:
			id, perr := parseID("interval", args[0])
			if perr != nil {
				return perr
			}
			iv, err = a.Engine.Stop(ctx, id)
		case projectFlag != "":
			project, perr := resolveProject(ctx, a.Engine, projectFlag)
			if perr != nil {
				return perr
			}
			iv, err = a.Engine.StopForProject(ctx, project.ID)
		default:
			running, rerr := a.Engine.AllRunning(ctx)
			if rerr != nil {
				return rerr
			}
			switch len(running) {
			case 0:
				return fmt.Errorf("no timers are running")
			case 1:
				iv, err = a.Engine.Stop(ctx, running[0].ID)
			default:
				return fmt.Errorf("%d timers are running, give an interval ID or --project", len(running))
			}
		}
		if err != nil {
			return err
		}

		return showClosed(cmd, a, iv, "Stopped")
	}),
}

var pauseCmd = &cobra.Command{
	Use:   "pause <project>",
	Short: "Pause a project's running timer",
	Long: `Pause closes the running interval. 'tally resume' later opens a new one,
copying its notes.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		project, err := resolveProject(ctx, a.Engine, args[0])
		if err != nil {
			return err
		}

		iv, err := a.Engine.Pause(ctx, project.ID)
		if err != nil {
			return err
		}
		if err := showClosed(cmd, a, iv, "Paused"); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "   Use 'tally resume %d' to continue.\n", project.ID)
		return nil
	}),
}

var resumeCmd = &cobra.Command{
	Use:   "resume <project>",
	Short: "Resume a paused project",
	Long: `Resume starts a new interval for the project, copying the notes of its
most recent interval unless --no-notes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		project, err := resolveProject(ctx, a.Engine, args[0])
		if err != nil {
			return err
		}

		noNotes, _ := cmd.Flags().GetBool("no-notes")
		iv, err := a.Engine.Resume(ctx, project.ID, !noNotes)
		if err != nil {
			return err
		}

		return showStarted(cmd, a, iv, project, "Resumed")
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show running timers, or one project's state",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			project, err := resolveProject(ctx, a.Engine, args[0])
			if err != nil {
				return err
			}
			snap, err := a.Engine.Snapshot(ctx, project.ID)
			if err != nil {
				return err
			}
			printSnapshot(out, project, snap)
			return nil
		}

		running, err := a.Engine.AllRunning(ctx)
		if err != nil {
			return err
		}
		if len(running) == 0 {
			fmt.Fprintln(out, "No timers running")
			return nil
		}

		projects, err := a.Engine.Projects(ctx)
		if err != nil {
			return err
		}
		byID := projectsByID(projects)
		now := a.Engine.Now()

		fmt.Fprintf(out, "⏱️  %d timer(s) running\n", len(running))
		for _, iv := range running {
			p := byID[iv.ProjectID]
			elapsed := timer.ClampElapsed(iv.StartTime, now)
			fmt.Fprintf(out, "  #%-4d %-30s %s  %s  since %s\n",
				iv.ID, truncate(p.Label(), 30),
				timer.FormatDuration(elapsed),
				timer.FormatCost(timer.Cost(elapsed, p.EffectiveRate())),
				parser.FormatWhen(iv.StartTime, now.In(time.Local)))
		}
		return nil
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch [interval-id]",
	Short: "Open the live timer for a running interval",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()

		var iv *models.Interval
		if len(args) == 1 {
			id, err := parseID("interval", args[0])
			if err != nil {
				return err
			}
			if iv, err = a.Engine.Get(ctx, id); err != nil {
				return err
			}
			if !iv.IsRunning {
				return fmt.Errorf("interval #%d is not running", id)
			}
		} else {
			running, err := a.Engine.AllRunning(ctx)
			if err != nil {
				return err
			}
			switch len(running) {
			case 0:
				return fmt.Errorf("no timers are running")
			case 1:
				iv = &running[0]
			default:
				return fmt.Errorf("%d timers are running, give an interval ID", len(running))
			}
		}

		return tui.RunTimerTUI(ctx, a.Engine, iv, cmd.OutOrStdout())
	}),
}

// showStarted reports a newly opened interval, then hands over to the live
// timer unless --no-ui is set.
func showStarted(cmd *cobra.Command, a *app.App, iv *models.Interval, project *models.Project, verb string) error {
	noUI, _ := cmd.Flags().GetBool("no-ui")
	if !noUI {
		return tui.RunTimerTUI(cmd.Context(), a.Engine, iv, cmd.OutOrStdout())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "⏱️  %s tracking %s (interval #%d)\n", verb, project.Label(), iv.ID)
	fmt.Fprintf(out, "Started at: %s\n", iv.StartTime.In(time.Local).Format("15:04:05"))
	if iv.HasNotes() {
		fmt.Fprintf(out, "Notes: %s\n", iv.NoteText())
	}
	return nil
}

// showClosed reports a closed interval with its duration and cost.
func showClosed(cmd *cobra.Command, a *app.App, iv *models.Interval, verb string) error {
	project, err := a.Engine.Project(cmd.Context(), iv.ProjectID)
	if err != nil {
		return err
	}

	d := timer.DurationOf(*iv, a.Engine.Now())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "⏹️  %s %s (interval #%d)\n", verb, project.Label(), iv.ID)
	fmt.Fprintf(out, "Duration: %s · cost %s\n",
		timer.FormatDuration(d), timer.FormatCost(timer.Cost(d, project.EffectiveRate())))
	return nil
}

func printSnapshot(out io.Writer, project *models.Project, snap *timer.Snapshot) {
	now := snap.Now.In(time.Local)
	fmt.Fprintf(out, "%s is %s\n", project.Label(), snap.State)

	switch snap.State {
	case timer.StateRunning:
		fmt.Fprintf(out, "Interval #%d since %s\n", snap.Running.ID, parser.FormatWhen(snap.Running.StartTime, now))
		fmt.Fprintf(out, "Elapsed: %s · cost %s\n",
			timer.FormatDuration(snap.Elapsed),
			timer.FormatCost(timer.Cost(snap.Elapsed, project.EffectiveRate())))
	case timer.StatePaused:
		fmt.Fprintf(out, "Paused at %s, use 'tally resume %d' to continue\n",
			parser.FormatWhen(*snap.Latest.EndTime, now), project.ID)
	default:
		if snap.Latest != nil && snap.Latest.EndTime != nil {
			fmt.Fprintf(out, "Last worked %s\n", parser.FormatWhen(*snap.Latest.EndTime, now))
		}
	}
}

func init() {
	startCmd.Flags().String("note", "", "Notes for the interval")
	startCmd.Flags().Bool("no-ui", false, "Start timer without interactive UI")
	stopCmd.Flags().String("project", "", "Stop the running timer of this project")
	resumeCmd.Flags().Bool("no-notes", false, "Do not copy notes from the previous interval")
	resumeCmd.Flags().Bool("no-ui", false, "Resume timer without interactive UI")
}
