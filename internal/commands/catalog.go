package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tally/internal/app"
	"github.com/balkashynov/tally/internal/timer"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage clients",
}

var clientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a client with a default hourly rate",
	Long: `Add a client. Projects bill at the client's rate unless they set their own.

Examples:
  tally client add "Acme Corp" --rate 85`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		rateFlag, _ := cmd.Flags().GetString("rate")
		rate, err := parseRate(rateFlag)
		if err != nil {
			return err
		}

		client, err := a.Engine.CreateClient(cmd.Context(), args[0], rate)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Added client #%d: %s (%s/h)\n", client.ID, client.Name, timer.FormatCost(client.HourlyRate))
		return nil
	}),
}

var clientListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List clients",
	Args:    cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		clients, err := a.Engine.Clients(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(clients) == 0 {
			fmt.Fprintln(out, "No clients yet. Use 'tally client add <name> --rate R' to add one.")
			return nil
		}

		fmt.Fprintf(out, "%-4s %-30s %10s\n", "ID", "NAME", "RATE")
		fmt.Fprintln(out, strings.Repeat("-", 46))
		for _, c := range clients {
			fmt.Fprintf(out, "%-4d %-30s %10s\n", c.ID, truncate(c.Name, 30), timer.FormatCost(c.HourlyRate))
		}
		return nil
	}),
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a project for a client",
	Long: `Add a project. Without --rate it bills at the client's rate.

Examples:
  tally project add Website --client 1
  tally project add "Rush job" --client 1 --rate 120`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		clientFlag, _ := cmd.Flags().GetString("client")
		if clientFlag == "" {
			return fmt.Errorf("--client is required")
		}
		clientID, err := parseID("client", clientFlag)
		if err != nil {
			return err
		}

		var rate *float64
		if cmd.Flags().Changed("rate") {
			rateFlag, _ := cmd.Flags().GetString("rate")
			r, err := parseRate(rateFlag)
			if err != nil {
				return err
			}
			rate = &r
		}

		project, err := a.Engine.CreateProject(cmd.Context(), clientID, args[0], rate)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Added project #%d: %s at %s\n", project.ID, project.Label(), rateText(*project))
		return nil
	}),
}

var projectListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List projects with their effective rates",
	Args:    cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		projects, err := a.Engine.Projects(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(projects) == 0 {
			fmt.Fprintln(out, "No projects yet. Use 'tally project add <name> --client ID' to add one.")
			return nil
		}

		fmt.Fprintf(out, "%-4s %-20s %-24s %-9s %s\n", "ID", "CLIENT", "PROJECT", "STATE", "RATE")
		fmt.Fprintln(out, strings.Repeat("-", 76))
		for _, p := range projects {
			state, err := a.Engine.Status(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-4d %-20s %-24s %-9s %s\n",
				p.ID, truncate(p.Client.Name, 20), truncate(p.Name, 24), state, rateText(p))
		}
		return nil
	}),
}

var projectRateCmd = &cobra.Command{
	Use:   "rate <project> [rate]",
	Short: "Set or clear a project's own hourly rate",
	Long: `Set a project's hourly rate, or clear it with --clear so the project
bills at its client's rate again.

Examples:
  tally project rate 3 95
  tally project rate Website --clear`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		ctx := cmd.Context()
		useClient, _ := cmd.Flags().GetBool("clear")
		if useClient == (len(args) == 2) {
			return fmt.Errorf("give either a rate or --clear")
		}

		project, err := resolveProject(ctx, a.Engine, args[0])
		if err != nil {
			return err
		}

		var rate *float64
		if !useClient {
			r, err := parseRate(args[1])
			if err != nil {
				return err
			}
			rate = &r
		}

		project, err = a.Engine.SetProjectRate(ctx, project.ID, rate)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "💰 %s now bills at %s\n", project.Label(), rateText(*project))
		return nil
	}),
}

// truncate shortens s to n bytes with an ellipsis
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func init() {
	clientAddCmd.Flags().String("rate", "0", "Default hourly rate")
	clientCmd.AddCommand(clientAddCmd, clientListCmd)

	projectAddCmd.Flags().String("client", "", "Client ID (required)")
	projectAddCmd.Flags().String("rate", "", "Hourly rate overriding the client's")
	projectRateCmd.Flags().Bool("clear", false, "Clear the project's rate and use the client's")
	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRateCmd)
}
