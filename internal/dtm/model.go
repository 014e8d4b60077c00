package dtm

import (
	"fmt"
	"math"
	"time"

	"github.com/imclab/atlaas/internal/raster"
)

// Params configures a new Model. Zero values fall back to the defaults
// noted on each field.
type Params struct {
	SizeX float64 // window width in meters (default 90)
	SizeY float64 // window height in meters (default 90)
	Scale float64 // meters per pixel (default 0.1)

	// Custom-frame origin and UTM geo-reference of the initial window.
	CustomX  float64
	CustomY  float64
	UTMX     float64
	UTMY     float64
	UTMZone  int
	UTMNorth bool

	VarianceFactor float64 // flat/vertical threshold multiplier (default 3)
	DynamicMerge   bool    // select the dynamic fusion path in Merge

	// Tiles persists maplets as the window slides. Nil keeps the model
	// fully in memory: slides shift the grid but skip all disk I/O.
	Tiles *TileStore
}

// Model is the terrain model: the in-memory cell grids, the backing
// raster, the sliding-window origin and the tile store.
//
// Model is not safe for concurrent use.
type Model struct {
	m *raster.Map // I/O data model

	internal []Cell // authoritative fused statistics
	gndinter []Cell // last known flat (ground) statistics per cell
	dyninter []Cell // per-cloud scratch for dynamic fusion
	vertical []bool // current flat/vertical classification

	width  int
	height int
	sw     int // maplet width  = width/3
	sh     int // maplet height = height/3

	current [2]int // world tile coordinates of the window centre
	mapSync bool   // raster bands reflect internal

	varianceFactor float32
	dynamicMerge   bool

	tiles  *TileStore
	events EventFunc

	timeBase time.Time
	now      func() time.Time
}

// New creates a model with a fresh window geo-referenced per p, then loads
// any of the nine maplets already on disk for the initial origin, so a
// restarted robot resumes its map. Window dimensions are rounded up to
// the next multiple of 3 pixels.
func New(p Params) (*Model, error) {
	if p.SizeX <= 0 {
		p.SizeX = 90
	}
	if p.SizeY <= 0 {
		p.SizeY = 90
	}
	if p.Scale <= 0 {
		p.Scale = 0.1
	}
	if p.VarianceFactor <= 0 {
		p.VarianceFactor = 3
	}

	w := roundUpTo3(int(math.Ceil(p.SizeX / p.Scale)))
	h := roundUpTo3(int(math.Ceil(p.SizeY / p.Scale)))

	m := raster.New(NumBands, w, h)
	if err := m.SetNames(BandNames); err != nil {
		return nil, err
	}
	m.SetTransform(p.UTMX, p.UTMY, p.Scale, -p.Scale)
	m.SetCustomOrigin(p.CustomX, p.CustomY)
	m.SetUTM(p.UTMZone, p.UTMNorth)

	a := &Model{
		m:              m,
		varianceFactor: float32(p.VarianceFactor),
		dynamicMerge:   p.DynamicMerge,
		tiles:          p.Tiles,
		timeBase:       time.Now(),
		now:            time.Now,
	}
	a.resize(w, h)
	a.mapSync = true

	// Resume from maplets persisted by an earlier run, if any.
	if a.tiles != nil {
		for sy := -1; sy <= 1; sy++ {
			for sx := -1; sx <= 1; sx++ {
				a.subLoad(sx, sy)
			}
		}
	}

	return a, nil
}

// Open creates a model from an existing window raster file, validating the
// band contract, and continues fusing into it.
func Open(path string, tiles *TileStore) (*Model, error) {
	m, err := raster.Load(path)
	if err != nil {
		return nil, err
	}
	a := &Model{
		varianceFactor: 3,
		tiles:          tiles,
		timeBase:       time.Now(),
		now:            time.Now,
	}
	if err := a.LoadFromRaster(m); err != nil {
		return nil, err
	}
	return a, nil
}

func roundUpTo3(n int) int {
	if r := n % 3; r != 0 {
		n += 3 - r
	}
	return n
}

func (a *Model) resize(w, h int) {
	a.width = w
	a.height = h
	a.sw = w / 3
	a.sh = h / 3
	a.internal = make([]Cell, w*h)
	a.gndinter = make([]Cell, w*h)
	a.dyninter = make([]Cell, w*h)
	a.vertical = make([]bool, w*h)
	a.current = [2]int{0, 0}
}

// Width returns the window width in pixels.
func (a *Model) Width() int { return a.width }

// Height returns the window height in pixels.
func (a *Model) Height() int { return a.height }

// Current returns the world tile coordinates of the window centre.
func (a *Model) Current() (int, int) { return a.current[0], a.current[1] }

// Dirty reports whether the backing raster is out of sync with the grid.
func (a *Model) Dirty() bool { return !a.mapSync }

// Internal exposes the authoritative cell grid, row-major W×H. Callers
// must not retain the slice across a slide.
func (a *Model) Internal() []Cell { return a.internal }

// SetVarianceFactor overrides the flat/vertical threshold multiplier.
func (a *Model) SetVarianceFactor(f float32) { a.varianceFactor = f }

// SetTimeBase rebases the LastUpdate clock. Timestamps are stored as
// float32 seconds since this base so they survive the narrow cell fields.
func (a *Model) SetTimeBase(base time.Time) { a.timeBase = base }

// SetEventSink installs the slide-event callback. Nil disables emission.
func (a *Model) SetEventSink(f EventFunc) { a.events = f }

// refTime is the current time in seconds since the time base.
func (a *Model) refTime() float32 {
	return float32(a.now().Sub(a.timeBase).Seconds())
}

// IndexOf maps custom-frame coordinates to a cell index in the window.
// The second return is false when the point is outside the window.
func (a *Model) IndexOf(x, y float64) (int, bool) {
	return a.m.IndexCustom(x, y)
}

// Raster syncs the backing raster if needed and returns it.
func (a *Model) Raster() *raster.Map {
	if !a.mapSync {
		a.SyncToRaster()
	}
	return a.m
}

// RasterUnsynced returns the backing raster without refreshing its bands.
func (a *Model) RasterUnsynced() *raster.Map { return a.m }

// SyncToRaster writes the six raster bands from the cell grid and clears
// the dirty flag.
func (a *Model) SyncToRaster() {
	for idx := range a.internal {
		writeCell(a.m, idx, &a.internal[idx])
	}
	a.mapSync = true
}

// LoadFromRaster replaces the model state with the contents of m. The
// raster must carry the six terrain bands and dimensions divisible by 3.
func (a *Model) LoadFromRaster(m *raster.Map) error {
	if err := checkBands(m); err != nil {
		return err
	}
	if m.Width()%3 != 0 || m.Height()%3 != 0 {
		return fmt.Errorf("dtm: raster dimensions %dx%d not divisible by 3", m.Width(), m.Height())
	}
	a.m = m
	a.resize(m.Width(), m.Height())
	for idx := range a.internal {
		a.internal[idx] = readCell(m, idx)
	}
	a.mapSync = true
	return nil
}

// Save syncs and writes the window raster to path.
func (a *Model) Save(path string) error {
	return a.Raster().Save(path)
}

func checkBands(m *raster.Map) error {
	names := m.Names()
	if len(names) != NumBands {
		return fmt.Errorf("dtm: raster has %d bands, want %d", len(names), NumBands)
	}
	for i, want := range BandNames {
		if names[i] != want {
			return fmt.Errorf("dtm: raster band %d is %q, want %q", i, names[i], want)
		}
	}
	return nil
}

func writeCell(m *raster.Map, idx int, c *Cell) {
	m.Band(BandNPoints)[idx] = c.NPoints
	m.Band(BandZMax)[idx] = c.ZMax
	m.Band(BandZMin)[idx] = c.ZMin
	m.Band(BandZMean)[idx] = c.ZMean
	m.Band(BandVariance)[idx] = c.Variance
	m.Band(BandLastUpdate)[idx] = c.LastUpdate
}

func readCell(m *raster.Map, idx int) Cell {
	return Cell{
		NPoints:    m.Band(BandNPoints)[idx],
		ZMax:       m.Band(BandZMax)[idx],
		ZMin:       m.Band(BandZMin)[idx],
		ZMean:      m.Band(BandZMean)[idx],
		Variance:   m.Band(BandVariance)[idx],
		LastUpdate: m.Band(BandLastUpdate)[idx],
	}
}
