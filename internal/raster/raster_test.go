package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap(t *testing.T) *Map {
	t.Helper()
	m := New(2, 6, 6)
	require.NoError(t, m.SetNames([]string{"A", "B"}))
	// North-up raster: origin at the top-left, negative y scale.
	m.SetTransform(100, 260, 1, -1)
	m.SetCustomOrigin(100, 200)
	m.SetUTM(31, true)
	return m
}

func TestMap_TransformMath(t *testing.T) {
	t.Parallel()

	m := newTestMap(t)

	t.Run("custom to pix", func(t *testing.T) {
		t.Parallel()
		px, py := m.PointCustom2Pix(2.5, 57.5)
		// utm = (102.5, 257.5); px = 2.5, py = (257.5-260)/(-1) = 2.5
		assert.InDelta(t, 2.5, px, 1e-9)
		assert.InDelta(t, 2.5, py, 1e-9)
	})

	t.Run("pix to utm", func(t *testing.T) {
		t.Parallel()
		ux, uy := m.PointPix2UTM(3, 2)
		assert.InDelta(t, 103, ux, 1e-9)
		assert.InDelta(t, 258, uy, 1e-9)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		px, py := m.PointCustom2Pix(4.25, 55.5)
		ux, uy := m.PointPix2UTM(px, py)
		assert.InDelta(t, 104.25, ux, 1e-9)
		assert.InDelta(t, 255.5, uy, 1e-9)
	})
}

func TestMap_IndexCustom(t *testing.T) {
	t.Parallel()

	m := newTestMap(t)

	idx, ok := m.IndexCustom(1.5, 58.5)
	require.True(t, ok)
	// col 1, row (258.5-260)/(-1) = 1.5 -> 1
	assert.Equal(t, 1*6+1, idx)

	for _, c := range []struct{ x, y float64 }{
		{-0.5, 58}, // west
		{6.5, 58},  // east
		{2, 60.5},  // north of the origin row
		{2, 53.5},  // south
	} {
		_, ok := m.IndexCustom(c.x, c.y)
		assert.False(t, ok, "(%g,%g) should be out of range", c.x, c.y)
	}
}

func TestMap_SetNamesCountMismatch(t *testing.T) {
	t.Parallel()

	m := New(2, 3, 3)
	assert.Error(t, m.SetNames([]string{"only one"}))
}

func TestMap_CopyMeta(t *testing.T) {
	t.Parallel()

	src := newTestMap(t)
	src.Band(0)[7] = 42

	var dst Map
	dst.CopyMeta(src, 2, 2)

	assert.Equal(t, 2, dst.Width())
	assert.Equal(t, 2, dst.Height())
	assert.Equal(t, src.Names(), dst.Names())
	assert.Equal(t, src.ScaleX(), dst.ScaleX())
	assert.Equal(t, src.ScaleY(), dst.ScaleY())
	zone, north := dst.UTMZone()
	assert.Equal(t, 31, zone)
	assert.True(t, north)

	// Pixel data is not carried over.
	for b := 0; b < dst.NumBands(); b++ {
		for _, v := range dst.Band(b) {
			assert.Zero(t, v)
		}
	}

	// The copy keeps the source geo-frame.
	sx, sy := src.PointPix2UTM(0, 0)
	dx, dy := dst.PointPix2UTM(0, 0)
	assert.Equal(t, sx, dx)
	assert.Equal(t, sy, dy)
}

func TestMap_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.tif")

	m := newTestMap(t)
	for i := range m.Band(0) {
		m.Band(0)[i] = float32(i)
		m.Band(1)[i] = float32(i) * 0.5
	}
	require.NoError(t, m.Save(path))
	require.True(t, Exists(path))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, m.Width(), got.Width())
	assert.Equal(t, m.Height(), got.Height())
	assert.Equal(t, m.Names(), got.Names())
	if diff := cmp.Diff(m.Band(0), got.Band(0)); diff != "" {
		t.Errorf("band 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Band(1), got.Band(1)); diff != "" {
		t.Errorf("band 1 mismatch (-want +got):\n%s", diff)
	}

	ux, uy := got.PointPix2UTM(0, 0)
	assert.Equal(t, 100.0, ux)
	assert.Equal(t, 260.0, uy)
	px, py := got.PointCustom2Pix(0, 60)
	assert.InDelta(t, 0, px, 1e-9)
	assert.InDelta(t, 0, py, 1e-9)
}

func TestMap_SaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := newTestMap(t)
	require.NoError(t, m.Save(filepath.Join(dir, "map.tif")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "map.tif", entries[0].Name())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "nope.tif"))
		assert.Error(t, err)
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.tif")
		require.NoError(t, os.WriteFile(path, []byte("not gzip at all"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("exists", func(t *testing.T) {
		t.Parallel()
		assert.False(t, Exists(filepath.Join(t.TempDir(), "absent")))
	})
}
