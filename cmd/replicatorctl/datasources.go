package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replicator/replicator/internal/apiclient"
	"github.com/replicator/replicator/internal/store"
)

func storeKind(s string) store.EndpointKind {
	return store.EndpointKind(s)
}

var datasourcesCmd = &cobra.Command{
	Use:     "datasources",
	Aliases: []string{"ds"},
	Short:   "Manage configured datasources",
}

func init() {
	rootCmd.AddCommand(datasourcesCmd)
	datasourcesCmd.AddCommand(dsListCmd, dsGetCmd, dsCreateCmd, dsDeleteCmd, dsTestCmd, dsDatabasesCmd, dsTablesCmd, dsIndicesCmd)
}

var dsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured datasources",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := client().ListDatasources()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(list)
			return nil
		}
		tw := newTable()
		fmt.Fprintln(tw, row("ID", "NAME", "KIND", "HOST", "PORT"))
		for _, ds := range list {
			fmt.Fprintln(tw, row(ds.ID, ds.Name, string(ds.Kind), ds.Host, fmt.Sprint(ds.Port)))
		}
		return tw.Flush()
	},
}

var dsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := client().GetDatasource(args[0])
		if err != nil {
			return err
		}
		printJSON(ds)
		return nil
	},
}

var (
	dsCreateKind string
	dsCreateHost string
	dsCreatePort int
	dsCreateDB   string
	dsCreateUser string
	dsCreatePass string
)

var dsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a new datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := client().CreateDatasource(apiclient.CreateDatasourceRequest{
			Name:            args[0],
			Kind:            storeKind(dsCreateKind),
			Host:            dsCreateHost,
			Port:            dsCreatePort,
			DefaultDatabase: dsCreateDB,
			Username:        dsCreateUser,
			Password:        dsCreatePass,
		})
		if err != nil {
			return err
		}
		printJSON(ds)
		return nil
	},
}

func init() {
	dsCreateCmd.Flags().StringVar(&dsCreateKind, "kind", "", "relational or search (required)")
	dsCreateCmd.Flags().StringVar(&dsCreateHost, "host", "", "hostname (required)")
	dsCreateCmd.Flags().IntVar(&dsCreatePort, "port", 0, "port (required)")
	dsCreateCmd.Flags().StringVar(&dsCreateDB, "database", "", "default database/schema")
	dsCreateCmd.Flags().StringVar(&dsCreateUser, "username", "", "auth username")
	dsCreateCmd.Flags().StringVar(&dsCreatePass, "password", "", "auth password")
	_ = dsCreateCmd.MarkFlagRequired("kind")
	_ = dsCreateCmd.MarkFlagRequired("host")
	_ = dsCreateCmd.MarkFlagRequired("port")
}

var dsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client().DeleteDatasource(args[0])
	},
}

var dsTestCmd = &cobra.Command{
	Use:   "test-connection <id>",
	Short: "Run a connection test against a datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := client().TestConnection(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(steps)
			return nil
		}
		for _, step := range steps {
			status := "OK"
			if !step.OK {
				status = "FAILED: " + step.Message
			}
			fmt.Printf("%-20s %s\n", step.Name, status)
		}
		return nil
	},
}

var dsDatabasesCmd = &cobra.Command{
	Use:   "databases <id>",
	Short: "List databases/schemas on a relational datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := client().ListDatabases(args[0])
		if err != nil {
			return err
		}
		return printStrings(names)
	},
}

var dsTablesCmd = &cobra.Command{
	Use:   "tables <id> <database>",
	Short: "List tables in a database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := client().ListTables(args[0], args[1])
		if err != nil {
			return err
		}
		return printStrings(names)
	},
}

var dsIndicesPattern string

var dsIndicesCmd = &cobra.Command{
	Use:   "indices <id>",
	Short: "List indices on a search datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := client().ListIndices(args[0], dsIndicesPattern)
		if err != nil {
			return err
		}
		return printStrings(names)
	},
}

func init() {
	dsIndicesCmd.Flags().StringVar(&dsIndicesPattern, "pattern", "", "glob pattern to filter index names")
}

func printStrings(names []string) error {
	if jsonOutput {
		printJSON(names)
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}
