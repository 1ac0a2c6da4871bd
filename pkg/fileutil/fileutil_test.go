package fileutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteFile([]byte("[]"), name))
	assert.True(t, FileExists(name))

	buf, err := ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(buf))
}

func TestFindResourcePthAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.grid")
	assert.Equal(t, abs, FindResourcePth(abs))
}

func TestFindResourcePthSourceTree(t *testing.T) {
	p := FindResourcePth("configs/config.toml")
	assert.True(t, FileExists(p), p)
}
