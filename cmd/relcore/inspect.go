package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect ID",
	Short: "print a relation's class row and attributes",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	id, err := parseRelationID(args[0])
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	row, err := rt.catalog.GetClassRow(id)
	if err != nil {
		_ = rt.txn.Abort()
		return fmt.Errorf("inspect: %w", err)
	}

	fmt.Printf("relation %d: name=%s namespace=%s kind=%s persistence=%s\n",
		id, row.Desc.Name, row.Desc.Namespace, row.Desc.Kind, row.Desc.Persistence)
	fmt.Printf("  pages=%d tuples=%d check_count=%d has_subclasses=%t\n",
		row.Pages, row.Tuples, row.Desc.CheckCount, row.HasSubclasses)
	if row.Desc.IsPartition {
		fmt.Printf("  partition_bound=%s\n", row.Desc.PartitionBound)
	}

	attrs, err := rt.catalog.ListAttributes(id)
	if err != nil {
		_ = rt.txn.Abort()
		return fmt.Errorf("inspect: %w", err)
	}
	for _, a := range attrs {
		status := ""
		if a.Dropped {
			status = " (dropped)"
		}
		fmt.Printf("  attnum=%-4d name=%-20s type=%-6d notnull=%-5t%s\n", a.AttNum, a.Name, a.TypeID, a.NotNull, status)
	}

	_ = rt.txn.Abort()
	return nil
}
