package main

import (
	"fmt"
	"strconv"

	"github.com/relforge/relcore/pkg/types"
	"github.com/spf13/cobra"
)

var dropTableCmd = &cobra.Command{
	Use:   "drop-table ID",
	Short: "drop a relation's catalog rows and schedule its storage drop",
	Long: `drop-table drives drop_with_catalog: it deletes the relation's own
pg_class/pg_attribute/pg_inherits rows and schedules the underlying storage
fork for removal at commit via the pending-action log.`,
	Args: cobra.ExactArgs(1),
	RunE: runDropTable,
}

func runDropTable(cmd *cobra.Command, args []string) error {
	id, err := parseRelationID(args[0])
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}

	dropErr := rt.destroyer.DropWithCatalog(id)
	if finishErr := rt.finish(dropErr); finishErr != nil {
		return finishErr
	}

	fmt.Printf("dropped relation %d\n", id)
	return nil
}

func parseRelationID(s string) (types.RelationID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid relation id %q: %w", s, err)
	}
	return types.RelationID(n), nil
}
