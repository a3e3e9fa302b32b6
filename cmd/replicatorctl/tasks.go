package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replicator/replicator/internal/apiclient"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage sync tasks",
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(
		taskListCmd, taskGetCmd, taskCreateCmd, taskDeleteCmd,
		taskUnitsCmd, taskResetFailedCmd,
		taskStartCmd, taskPauseCmd, taskResumeCmd,
		taskProgressCmd, taskLogsCmd,
	)
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sync tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := client().ListTasks()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(list)
			return nil
		}
		tw := newTable()
		fmt.Fprintln(tw, row("ID", "NAME", "STATUS", "SOURCE", "TARGET"))
		for _, t := range list {
			fmt.Fprintln(tw, row(t.ID, t.Name, string(t.Status), t.SourceID, t.TargetID))
		}
		return tw.Flush()
	},
}

var taskGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one sync task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := client().GetTask(args[0])
		if err != nil {
			return err
		}
		printJSON(t)
		return nil
	},
}

var (
	taskCreateSource string
	taskCreateTarget string
	taskCreateConfig string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Define a new sync task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := client().CreateTask(apiclient.CreateTaskRequest{
			Name:       args[0],
			SourceID:   taskCreateSource,
			TargetID:   taskCreateTarget,
			ConfigJSON: taskCreateConfig,
		})
		if err != nil {
			return err
		}
		printJSON(t)
		return nil
	},
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskCreateSource, "source", "", "source datasource ID (required)")
	taskCreateCmd.Flags().StringVar(&taskCreateTarget, "target", "", "target datasource ID (required)")
	taskCreateCmd.Flags().StringVar(&taskCreateConfig, "config", "{}", "task config as a JSON object (unit selectors, batch size, error strategy, ...)")
	_ = taskCreateCmd.MarkFlagRequired("source")
	_ = taskCreateCmd.MarkFlagRequired("target")
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a sync task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client().DeleteTask(args[0])
	},
}

var taskUnitsCmd = &cobra.Command{
	Use:   "units <id>",
	Short: "Show per-unit runtime state for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		units, err := client().GetTaskUnits(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(units)
			return nil
		}
		tw := newTable()
		fmt.Fprintln(tw, row("UNIT", "STATUS", "PROCESSED", "TOTAL", "RETRIES"))
		for _, u := range units {
			fmt.Fprintln(tw, row(u.UnitName, string(u.Status), fmt.Sprint(u.ProcessedRecords), fmt.Sprint(u.TotalRecords), fmt.Sprint(u.RetryCount)))
		}
		return tw.Flush()
	},
}

var taskResetFailedCmd = &cobra.Command{
	Use:   "reset-failed-units <id>",
	Short: "Reset failed units back to pending so the next run retries them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := client().ResetFailedUnits(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("reset %d unit(s)\n", count)
		return nil
	},
}

var taskStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start (or resume from idle) a sync task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client().StartSync(args[0])
	},
}

var taskPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a running sync task; in-flight units stop after their current batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client().PauseSync(args[0])
	},
}

var taskResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused sync task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client().ResumeSync(args[0])
	},
}

var taskProgressCmd = &cobra.Command{
	Use:   "progress <id>",
	Short: "Show a snapshot of task progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := client().GetProgress(args[0])
		if err != nil {
			return err
		}
		printJSON(snap)
		return nil
	},
}

var taskLogsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Show buffered log lines for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, err := client().GetLogs(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(logs)
			return nil
		}
		for _, l := range logs {
			fmt.Printf("%s [%s] %s\n", l.Timestamp.Format("15:04:05"), l.Level, l.Message)
		}
		return nil
	},
}
