package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/replicator/replicator/internal/progress"
)

var taskWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Stream progress, log, and connection-test events for a task until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		return client().StreamEvents(ctx, args[0], printEvent)
	},
}

func init() {
	tasksCmd.AddCommand(taskWatchCmd)
}

func printEvent(event progress.Event) {
	if jsonOutput {
		printJSON(event)
		return
	}
	switch event.Type {
	case progress.EventTaskProgress:
		if event.Snapshot != nil {
			fmt.Printf("[progress] %s: %d/%d units, %.1f%%\n", event.TaskID, event.Snapshot.CompletedUnits, event.Snapshot.TotalUnits, event.Snapshot.Percentage)
		}
	case progress.EventTaskLog:
		if event.Log != nil {
			fmt.Printf("[log] %s [%s] %s\n", event.TaskID, event.Log.Level, event.Log.Message)
		}
	case progress.EventConnectionTestStep:
		if event.Step != nil {
			fmt.Printf("[test] %s: %s ok=%v\n", event.TaskID, event.Step.Name, event.Step.OK)
		}
	}
}
