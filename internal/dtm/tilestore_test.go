package dtm

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imclab/atlaas/internal/raster"
)

// mockCatalog records RecordSave calls and can be made to fail.
type mockCatalog struct {
	saves     []string
	recordErr error
}

func (m *mockCatalog) RecordSave(tx, ty int, path, sessionID string) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.saves = append(m.saves, fmt.Sprintf("%d,%d:%s:%s", tx, ty, filepath.Base(path), sessionID))
	return nil
}

func newTestMaplet(t *testing.T) *raster.Map {
	t.Helper()
	m := raster.New(NumBands, 10, 10)
	require.NoError(t, m.SetNames(BandNames))
	return m
}

func TestTileStore_Path(t *testing.T) {
	t.Parallel()

	s := NewTileStore("/data/tiles", "")
	assert.Equal(t, filepath.Join("/data/tiles", "atlaas.-1x2.tif"), s.Path(-1, 2))

	custom := NewTileStore("/data", "maplet_%d_%d.bin")
	assert.Equal(t, filepath.Join("/data", "maplet_3_-4.bin"), custom.Path(3, -4))
}

func TestTileStore_LoadAbsent(t *testing.T) {
	t.Parallel()

	s := NewTileStore(t.TempDir(), "")
	m, err := s.Load(5, 5)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.False(t, s.Exists(5, 5))
}

func TestTileStore_SaveLoad(t *testing.T) {
	t.Parallel()

	s := NewTileStore(t.TempDir(), "")
	maplet := newTestMaplet(t)
	maplet.Band(BandZMean)[3] = 1.5

	require.NoError(t, s.Save(2, -1, maplet))
	require.True(t, s.Exists(2, -1))

	got, err := s.Load(2, -1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, float32(1.5), got.Band(BandZMean)[3])
}

func TestTileStore_CatalogRecording(t *testing.T) {
	t.Parallel()

	s := NewTileStore(t.TempDir(), "")
	catalog := &mockCatalog{}
	s.SetCatalog(catalog, "session-1")

	require.NoError(t, s.Save(0, 1, newTestMaplet(t)))
	require.Len(t, catalog.saves, 1)
	assert.Equal(t, "0,1:atlaas.0x1.tif:session-1", catalog.saves[0])
}

func TestTileStore_CatalogFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	s := NewTileStore(t.TempDir(), "")
	s.SetCatalog(&mockCatalog{recordErr: fmt.Errorf("db locked")}, "session-1")

	// The maplet file is the source of truth; catalog errors only log.
	require.NoError(t, s.Save(0, 1, newTestMaplet(t)))
	assert.True(t, s.Exists(0, 1))
}
