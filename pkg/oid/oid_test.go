package oid

import (
	"testing"

	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNewRelationFileIDStartsAtFirstNormalID(t *testing.T) {
	p := NewPool()
	id, err := p.NewRelationFileID("", false, types.PersistencePermanent)
	require.NoError(t, err)
	require.Equal(t, FirstNormalID, id)
}

func TestNewRelationFileIDSkipsInUseIDs(t *testing.T) {
	taken := map[types.RelationID]bool{FirstNormalID: true, FirstNormalID + 1: true}
	checker := CheckerFunc(func(id types.RelationID) bool { return taken[id] })

	p := NewPool(checker)
	id, err := p.NewRelationFileID("", false, types.PersistencePermanent)
	require.NoError(t, err)
	require.Equal(t, FirstNormalID+2, id)
}

func TestRegisterAddsCheckerConsultedByFutureAllocations(t *testing.T) {
	p := NewPool()

	first, err := p.NewRelationFileID("", false, types.PersistencePermanent)
	require.NoError(t, err)
	require.Equal(t, FirstNormalID, first)

	blockNext := CheckerFunc(func(id types.RelationID) bool { return id == FirstNormalID+1 })
	p.Register(blockNext)

	second, err := p.NewRelationFileID("", false, types.PersistencePermanent)
	require.NoError(t, err)
	require.Equal(t, FirstNormalID+2, second)
}

func TestCheckerFuncAdaptsPlainFunction(t *testing.T) {
	var called types.RelationID
	f := CheckerFunc(func(id types.RelationID) bool {
		called = id
		return false
	})
	require.False(t, f.RelationIDInUse(42))
	require.Equal(t, types.RelationID(42), called)
}
