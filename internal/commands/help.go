package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for tally",
	Long:  `Display detailed help for all tally commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), customHelp)
	},
}

const customHelp = `
████████╗ █████╗ ██╗     ██╗  ██╗   ██╗
╚══██╔══╝██╔══██╗██║     ██║  ╚██╗ ██╔╝
   ██║   ███████║██║     ██║   ╚████╔╝
   ██║   ██╔══██║██║     ██║    ╚██╔╝
   ██║   ██║  ██║███████╗███████╗██║
   ╚═╝   ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝

tally - CLI time tracker for billed work

Projects can be given by ID, by name, or as client/project.

CLIENTS & PROJECTS:

  client add <name>       Add a client
    --rate                Default hourly rate
  client ls               List clients

  project add <name>      Add a project
    --client              Client ID (required)
    --rate                Own hourly rate (default: client's)
  project ls              List projects with state and rate
  project rate <p> [R]    Set a project's rate
    --clear               Bill at the client's rate again

TIMERS:

  start <project>         Start tracking time
    --note                Notes for the interval
    --no-ui               Skip the live timer
  stop [interval-id]      Stop a running timer
    --project             Stop by project instead
  pause <project>         Pause a running timer
  resume <project>        Resume with the previous notes
    --no-notes            Start with empty notes
    --no-ui               Skip the live timer
  status [project]        Running timers, or one project's state
  watch [interval-id]     Reopen the live timer

    Live timer keys:
      p             Pause
      s             Stop & save
      q/esc         Leave it running

ENTRIES:

  log <project>           Record time by hand
    --from                Start (dd/mm/yyyy HH:MM, HH:MM, now, 2h ago)
    --to | --duration     End time or length (1h30m)
    --note                Notes
  edit <interval-id>      Change start, end or notes
    --from, --to, --note
  rm <interval-id>        Delete a stopped interval
  ls                      Browse intervals
    -p, --project         Filter by project
    -n, --limit           Max rows (default 20)
    --today, --week       Date filters
    --no-ui               Plain text table

    Browser keys:
      ↑/↓ ←/→       Navigate rows and pages
      /             Filter by project or notes
      s             Stop the selected timer
      x             Delete the selected interval
      q/esc         Quit

REPORTS:

  report                  Billed totals and weekly timesheet
    --week, --last        Current or previous week (default)
    --from, --to          Date range (yyyy-mm-dd, dd/mm/yyyy, today)
    --by                  Group intervals by day or week
  export                  CSV of stopped intervals
    --from, --to          Date range (default: this week)
    -o, --output          Output file (default: stdout)

  version                 Show version
  help                    Show this help

Global: --config <file> (default $XDG_CONFIG_HOME/tally/tally.yml)

`
