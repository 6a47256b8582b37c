package smgr

import (
	"os"
	"testing"

	"github.com/relforge/relcore/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestCreateExists(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.False(t, m.Exists(1, types.ForkMain))
	require.NoError(t, m.Create(1, types.ForkMain))
	require.True(t, m.Exists(1, types.ForkMain))
}

func TestCreateIsIdempotent(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Create(1, types.ForkMain))
	require.NoError(t, m.Create(1, types.ForkMain))
	n, err := m.NBlocks(1, types.ForkMain)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestTruncateCreatesMissingFile(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Truncate(2, types.ForkMain, 3))
	n, err := m.NBlocks(2, types.ForkMain)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestNBlocksRoundsUpPartialBlock(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Truncate(3, types.ForkMain, 1))
	// shrink back down to a non-block-aligned size directly on the file
	require.NoError(t, os.Truncate(m.path(3, types.ForkMain), 100))
	n, err := m.NBlocks(3, types.ForkMain)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestNBlocksMissingFileIsZero(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	n, err := m.NBlocks(99, types.ForkMain)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestUnlinkAllRemovesEveryFork(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	for _, fork := range []types.Fork{types.ForkMain, types.ForkFSM, types.ForkVM} {
		require.NoError(t, m.Create(4, fork))
	}
	require.NoError(t, m.UnlinkAll(4))
	for _, fork := range []types.Fork{types.ForkMain, types.ForkFSM, types.ForkVM} {
		require.False(t, m.Exists(4, fork))
	}
}

func TestUnlinkAllToleratesMissingForks(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Create(5, types.ForkMain))
	require.NoError(t, m.UnlinkAll(5))
}

func TestSyncAllSkipsMissingRelations(t *testing.T) {
	m, err := NewDiskManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Create(6, types.ForkMain))
	require.NoError(t, m.SyncAll([]types.RelationID{6, 7}))
}
