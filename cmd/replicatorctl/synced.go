package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncedCmd = &cobra.Command{
	Use:   "synced",
	Short: "Inspect the cross-task synced-unit ledger for a source",
}

func init() {
	rootCmd.AddCommand(syncedCmd)
	syncedCmd.AddCommand(syncedListCmd, syncedClearCmd)
}

var syncedListCmd = &cobra.Command{
	Use:   "list <source-id>",
	Short: "List units already synced from a source, across all tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := client().ListSynced(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(entries)
			return nil
		}
		tw := newTable()
		fmt.Fprintln(tw, row("UNIT", "SYNC_COUNT", "LAST_SYNCED_AT", "LAST_TASK_ID"))
		for _, e := range entries {
			fmt.Fprintln(tw, row(e.UnitName, fmt.Sprint(e.SyncCount), e.LastSyncedAt.Format("2006-01-02T15:04:05Z07:00"), e.LastTaskID))
		}
		return tw.Flush()
	},
}

var syncedClearUnit string

var syncedClearCmd = &cobra.Command{
	Use:   "clear <source-id>",
	Short: "Forget ledger entries for a source, forcing a full resync next run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := client().ClearSynced(args[0], syncedClearUnit)
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d ledger entr(y/ies)\n", count)
		return nil
	},
}

func init() {
	syncedClearCmd.Flags().StringVar(&syncedClearUnit, "unit", "", "only clear this unit name (default: clear all units for the source)")
}
