package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tally/internal/app"
	"github.com/balkashynov/tally/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

// openApp builds the App for one invocation. Tests replace it.
var openApp = func(path string, logOut io.Writer) (*app.App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logOut)
}

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "A CLI time tracker that bills by the hour",
	Long: `tally is a command-line time tracker for freelancers.
Track time per client and project, pause and resume timers, log manual
entries, and turn it all into billed reports and CSV exports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// withApp wraps a command function so it gets a ready App that is closed
// once the command finishes.
func withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(configPath, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("tally %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tally/tally.yml)")
	rootCmd.SetOut(os.Stdout)

	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
