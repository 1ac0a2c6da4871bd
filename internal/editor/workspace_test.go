package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

func TestWorkspaceEditsReachFinder(t *testing.T) {
	ws, err := NewWorkspace(grid(t,
		"..#..",
		"..#..",
		"..#..",
	), navigation.DefaultConfig(), 0)
	require.NoError(t, err)
	defer ws.Close()

	ctx := context.Background()
	start, goal := coord.New(0, 0), coord.New(0, 4)
	route, err := ws.Finder().FindPath(ctx, start, goal)
	require.NoError(t, err)
	assert.False(t, route.Found)

	require.NoError(t, ws.Apply(Paint(coord.New(1, 2), astar.Bridge)))
	route, err = ws.Finder().FindPath(ctx, start, goal)
	require.NoError(t, err)
	require.True(t, route.Found)
	assert.Contains(t, route.Path, coord.New(1, 2))
	assert.Equal(t, 1, ws.Finder().CacheSize())

	require.NoError(t, ws.Undo())
	assert.Equal(t, 0, ws.Finder().CacheSize())
	route, err = ws.Finder().FindPath(ctx, start, goal)
	require.NoError(t, err)
	assert.False(t, route.Found)

	canUndo, canRedo := ws.State()
	assert.False(t, canUndo)
	assert.True(t, canRedo)

	require.NoError(t, ws.Redo())
	route, err = ws.Finder().FindPath(ctx, start, goal)
	require.NoError(t, err)
	assert.True(t, route.Found)
}

func TestWorkspaceReplace(t *testing.T) {
	ws, err := NewWorkspace(grid(t, "..."), navigation.DefaultConfig(), 0)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.Apply(Paint(coord.New(0, 0), astar.Road)))
	require.NoError(t, ws.Replace(grid(t, "....", "....")))
	assert.Equal(t, []string{"....", "...."}, ws.Grid().Lines())
	assert.ErrorIs(t, ws.Undo(), errutil.ErrNoUndo)

	route, err := ws.Finder().FindPath(context.Background(), coord.New(0, 0), coord.New(1, 3))
	require.NoError(t, err)
	assert.True(t, route.Found)

	assert.ErrorIs(t, ws.Replace(nil), errutil.ErrInvalidDimensions)
}

func TestWorkspaceFailedEditKeepsState(t *testing.T) {
	ws, err := NewWorkspace(grid(t, ".."), navigation.DefaultConfig(), 0)
	require.NoError(t, err)
	defer ws.Close()

	assert.ErrorIs(t, ws.Apply(Paint(coord.New(3, 3), astar.Road)), errutil.ErrOutOfBounds)
	assert.Equal(t, []string{".."}, ws.Grid().Lines())
	canUndo, _ := ws.State()
	assert.False(t, canUndo)
}
