package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	eventsDBPath string
	eventsDays   int
	eventsOwner  string
)

// eventsCmd represents the events command group
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Error event maintenance commands",
	Long: `Commands for maintaining stored error events.

The server prunes old events on its own schedule; these commands are
for one-off maintenance, such as reclaiming space immediately after
lowering the retention period.

Examples:
  # Delete events older than 30 days
  spectractl events prune --days 30

  # Show event counts per project for a user
  spectractl events stats --owner admin@example.com`,
}

// eventsPruneCmd deletes events older than a cutoff
var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete events older than N days",
	Long: `Delete all error events received more than N days ago.

This runs the same cleanup the server's retention sweeper performs,
immediately and with an explicit cutoff.

Example:
  spectractl events prune --days 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventsDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		store, err := openDatabase(eventsDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		cutoff := time.Now().Add(-time.Duration(eventsDays) * 24 * time.Hour)
		PrintVerbose("Pruning events received before %s", cutoff.Format(time.RFC3339))

		pruned, err := store.Events().DeleteBefore(context.Background(), cutoff)
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}

		fmt.Printf("Pruned %d event(s) older than %d day(s).\n", pruned, eventsDays)
		return nil
	},
}

// eventsStatsCmd shows per-project event counts
var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event counts per project",
	Long: `Show the number of stored error events for each project owned
by a user.

Example:
  spectractl events stats --owner admin@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, owner, err := openForOwner(eventsDBPath, eventsOwner)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		projects, err := store.Projects().ListByUser(ctx, owner.ID)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-30s  %s\n", "ID", "NAME", "EVENTS")
		fmt.Println(strings.Repeat("-", 80))

		var total int64
		for _, p := range projects {
			_, count, err := store.Events().ListByProject(ctx, p.ID, 1, 0)
			if err != nil {
				return fmt.Errorf("count events for %s: %w", p.ID, err)
			}
			total += count
			fmt.Printf("%-36s  %-30s  %d\n", p.ID, truncate(p.Name, 30), count)
		}
		fmt.Printf("\nTotal: %d event(s) across %d project(s)\n", total, len(projects))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsPruneCmd)
	eventsCmd.AddCommand(eventsStatsCmd)

	for _, cmd := range []*cobra.Command{eventsPruneCmd, eventsStatsCmd} {
		cmd.Flags().StringVar(&eventsDBPath, "db", defaultDBPath, "path to SQLite database file")
	}

	eventsPruneCmd.Flags().IntVar(&eventsDays, "days", 90, "delete events older than this many days")
	eventsStatsCmd.Flags().StringVar(&eventsOwner, "owner", "", "email of the owning user (required)")
	eventsStatsCmd.MarkFlagRequired("owner")
}
