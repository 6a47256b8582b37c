package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relforge/relcore/pkg/types"
	"github.com/spf13/cobra"
)

var truncateCmd = &cobra.Command{
	Use:   "truncate ID NEW_MAIN_BLOCKS",
	Short: "WAL-log and resize a relation's main fork",
	Long: `truncate drives the truncate operation: it writes an
smgr_truncate WAL record, flushes the WAL first when the FSM or VM fork is
also touched, then resizes the main fork to the given block count. Pass
--non-transactional with a comma-separated id list instead of a single id
and block count to drive non_transactional_truncate (ON COMMIT DELETE ROWS).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTruncate,
}

var storePartitionBoundCmd = &cobra.Command{
	Use:   "store-partition-bound CHILD_ID PARENT_ID BOUND",
	Short: "attach a partition bound to its parent",
	Long: `store-partition-bound drives store_partition_bound: it records the
bound expression on the child's class row and, when --default is given,
updates the parent's default-partition slot.`,
	Args: cobra.ExactArgs(3),
	RunE: runStorePartitionBound,
}

func init() {
	truncateCmd.Flags().Bool("non-transactional", false, "treat args[0] as a comma-separated id list and truncate each to zero blocks")
	storePartitionBoundCmd.Flags().Bool("default", false, "mark this as the parent's default partition")
}

func runTruncate(cmd *cobra.Command, args []string) error {
	nonTransactional, _ := cmd.Flags().GetBool("non-transactional")

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}

	if nonTransactional {
		ids, parseErr := parseRelationIDList(args[0])
		if parseErr != nil {
			return rt.finish(parseErr)
		}
		truncErr := rt.destroyer.NonTransactionalTruncate(ids)
		if finishErr := rt.finish(truncErr); finishErr != nil {
			return finishErr
		}
		fmt.Printf("truncated %d relations\n", len(ids))
		return nil
	}

	if len(args) != 2 {
		return rt.finish(fmt.Errorf("truncate requires ID NEW_MAIN_BLOCKS"))
	}
	id, err := parseRelationID(args[0])
	if err != nil {
		return rt.finish(err)
	}
	blocks, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return rt.finish(fmt.Errorf("invalid block count %q: %w", args[1], err))
	}

	truncErr := rt.destroyer.Truncate(id, blocks, nil, nil)
	if finishErr := rt.finish(truncErr); finishErr != nil {
		return finishErr
	}

	fmt.Printf("truncated relation %d to %d blocks\n", id, blocks)
	return nil
}

func parseRelationIDList(s string) ([]types.RelationID, error) {
	parts := strings.Split(s, ",")
	ids := make([]types.RelationID, 0, len(parts))
	for _, p := range parts {
		id, err := parseRelationID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runStorePartitionBound(cmd *cobra.Command, args []string) error {
	child, err := parseRelationID(args[0])
	if err != nil {
		return err
	}
	parent, err := parseRelationID(args[1])
	if err != nil {
		return err
	}
	bound := args[2]
	isDefault, _ := cmd.Flags().GetBool("default")

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}

	boundErr := rt.destroyer.StorePartitionBound(child, parent, bound, isDefault)
	if finishErr := rt.finish(boundErr); finishErr != nil {
		return finishErr
	}

	fmt.Printf("stored partition bound %q for relation %d under parent %d\n", bound, child, parent)
	return nil
}
