package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

func attachFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewFileStore()
	require.NoError(t, s.Attach(types.Config{Backend: types.BackendJSONL, DataDir: dir}))
	t.Cleanup(func() { s.Detach() })
	return s, dir
}

func TestFileStoreEmitLoad(t *testing.T) {
	s, dir := attachFileStore(t)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), s.Path())

	require.NoError(t, Emit(s, sampleEntries()))
	objects, props, err := s.Load()
	require.NoError(t, err)
	wantObjects, wantProps := Split(sampleEntries())
	assert.Equal(t, wantObjects, objects)
	assert.Equal(t, wantProps, props)

	require.NoError(t, s.Reset())
	objects, props, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.Empty(t, props)

	require.NoError(t, s.EmitObject(types.ObjectRecord{ID: "X", TypeName: "Table"}))
	objects, _, err = s.Load()
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "X", objects[0].ID)
}

func TestFileStoreSurvivesReattach(t *testing.T) {
	s, dir := attachFileStore(t)
	require.NoError(t, Emit(s, sampleEntries()))
	require.NoError(t, s.Detach())

	again := NewFileStore()
	require.NoError(t, again.Attach(types.Config{Backend: types.BackendJSONL, DataDir: dir}))
	defer again.Detach()
	objects, props, err := again.Load()
	require.NoError(t, err)
	assert.Len(t, objects, 2)
	assert.Len(t, props, 3)
}

func TestFileStoreLifecycle(t *testing.T) {
	s := NewFileStore()
	assert.ErrorIs(t, s.EmitObject(types.ObjectRecord{ID: "A"}), types.ErrStoreDetached)
	_, _, err := s.Load()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, s.Reset(), types.ErrStoreDetached)
	assert.NoError(t, s.Detach(), "detach is idempotent")

	assert.ErrorIs(t, s.Attach(types.Config{}), types.ErrBackendEmpty)
	assert.ErrorIs(t, s.Attach(types.Config{Backend: types.BackendSQLite}), types.ErrBackendUnknown)

	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendJSONL, DataDir: filepath.Join(dir, "nested"), Name: "custom.jsonl"}
	require.NoError(t, s.Attach(cfg))
	assert.ErrorIs(t, s.Attach(cfg), types.ErrAlreadyAttached)
	require.NoError(t, s.Detach())
	require.NoError(t, s.Detach())

	_, err = os.Stat(filepath.Join(dir, "nested", "custom.jsonl"))
	assert.NoError(t, err)
}
