package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var dropColumnCmd = &cobra.Command{
	Use:   "drop-column ID ATTNUM",
	Short: "mark a column dropped on a relation",
	Long: `drop-column drives remove_attribute_by_id: it rewrites the
attribute's name to the reserved dropped-column pattern, clears its type,
not-null, generated, and missing-value bookkeeping, and deletes any
statistics recorded for it.`,
	Args: cobra.ExactArgs(2),
	RunE: runDropColumn,
}

func runDropColumn(cmd *cobra.Command, args []string) error {
	id, err := parseRelationID(args[0])
	if err != nil {
		return err
	}
	attNum, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid attribute number %q: %w", args[1], err)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}

	dropErr := rt.destroyer.RemoveAttributeByID(id, int32(attNum))
	if finishErr := rt.finish(dropErr); finishErr != nil {
		return finishErr
	}

	fmt.Printf("dropped column %d on relation %d\n", attNum, id)
	return nil
}
