package main

import (
	"context"
	"fmt"
	"os"

	"github.com/relforge/relcore/pkg/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relcore",
	Short: "relcore - a relational system-catalog relation-lifecycle core",
	Long: `relcore drives the create/alter/drop lifecycle of catalog relations
directly against a BoltDB-backed catalog store: new_relation_file_id,
create_with_catalog, drop_with_catalog, truncate, and the supporting
type-checking and dependency bookkeeping that go with them.`,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "./data", "catalog and storage directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(createTableCmd)
	rootCmd.AddCommand(dropTableCmd)
	rootCmd.AddCommand(dropColumnCmd)
	rootCmd.AddCommand(truncateCmd)
	rootCmd.AddCommand(storePartitionBoundCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
