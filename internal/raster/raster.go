// Package raster implements the geo-referenced band raster backing the
// terrain model: named float32 bands over a W×H pixel grid, an affine
// transform anchoring the grid in UTM, and a custom-frame origin so robot
// poses can be expressed relative to a site datum instead of raw UTM.
package raster

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"math"
	"os"
)

// Map is a multi-band raster with an affine geo-transform. Pixels are
// row-major; band b, pixel (x, y) lives at Band(b)[y*Width()+x].
type Map struct {
	width  int
	height int
	names  []string
	bands  [][]float32

	// Geo-transform: UTM of the top-left pixel corner plus pixel scales.
	// scaleY is conventionally negative (north-up rasters).
	utmX   float64
	utmY   float64
	scaleX float64
	scaleY float64

	// Custom-frame origin: custom coordinates + origin = UTM.
	customX float64
	customY float64

	utmZone  int
	utmNorth bool
}

// New allocates a raster with n zero-filled bands of w×h pixels.
func New(n, w, h int) *Map {
	m := &Map{}
	m.SetSize(n, w, h)
	return m
}

// SetSize reallocates the band storage. Existing pixel data is dropped.
func (m *Map) SetSize(n, w, h int) {
	m.width = w
	m.height = h
	m.bands = make([][]float32, n)
	for b := range m.bands {
		m.bands[b] = make([]float32, w*h)
	}
	if len(m.names) != n {
		m.names = make([]string, n)
	}
}

func (m *Map) Width() int  { return m.width }
func (m *Map) Height() int { return m.height }

// Names returns the band names in band order.
func (m *Map) Names() []string { return m.names }

// SetNames replaces the band names. The count must match the band count.
func (m *Map) SetNames(names []string) error {
	if len(names) != len(m.bands) {
		return fmt.Errorf("raster: %d names for %d bands", len(names), len(m.bands))
	}
	m.names = append([]string(nil), names...)
	return nil
}

// Band returns the backing slice for band b. Callers may mutate it.
func (m *Map) Band(b int) []float32 { return m.bands[b] }

// NumBands returns the number of bands.
func (m *Map) NumBands() int { return len(m.bands) }

// SetTransform anchors the raster: (ux, uy) is the UTM of the top-left
// pixel corner, (sx, sy) the pixel scales in meters.
func (m *Map) SetTransform(ux, uy, sx, sy float64) {
	m.utmX = ux
	m.utmY = uy
	m.scaleX = sx
	m.scaleY = sy
}

func (m *Map) ScaleX() float64 { return m.scaleX }
func (m *Map) ScaleY() float64 { return m.scaleY }

// SetCustomOrigin sets the custom-frame datum. A point (x, y) in the
// custom frame sits at UTM (x+cx, y+cy).
func (m *Map) SetCustomOrigin(cx, cy float64) {
	m.customX = cx
	m.customY = cy
}

// SetUTM records the UTM zone metadata carried through maplet files.
func (m *Map) SetUTM(zone int, north bool) {
	m.utmZone = zone
	m.utmNorth = north
}

// UTMZone returns the zone number and the northern-hemisphere flag.
func (m *Map) UTMZone() (int, bool) { return m.utmZone, m.utmNorth }

// PointCustom2Pix converts custom-frame coordinates to window-local
// floating-point pixel coordinates.
func (m *Map) PointCustom2Pix(x, y float64) (px, py float64) {
	px = (x + m.customX - m.utmX) / m.scaleX
	py = (y + m.customY - m.utmY) / m.scaleY
	return px, py
}

// PointPix2UTM converts window-local pixel coordinates to UTM.
func (m *Map) PointPix2UTM(px, py float64) (ux, uy float64) {
	ux = m.utmX + px*m.scaleX
	uy = m.utmY + py*m.scaleY
	return ux, uy
}

// IndexCustom maps custom-frame coordinates to a row-major pixel index.
// The second return is false when the point falls outside the raster.
func (m *Map) IndexCustom(x, y float64) (int, bool) {
	px, py := m.PointCustom2Pix(x, y)
	ix := int(math.Floor(px))
	iy := int(math.Floor(py))
	if ix < 0 || ix >= m.width || iy < 0 || iy >= m.height {
		return 0, false
	}
	return iy*m.width + ix, true
}

// CopyMeta copies band names, scales, UTM metadata and the custom origin
// from src, sized to w×h. Pixel data is zeroed.
func (m *Map) CopyMeta(src *Map, w, h int) {
	m.SetSize(src.NumBands(), w, h)
	m.names = append([]string(nil), src.names...)
	m.utmX = src.utmX
	m.utmY = src.utmY
	m.scaleX = src.scaleX
	m.scaleY = src.scaleY
	m.customX = src.customX
	m.customY = src.customY
	m.utmZone = src.utmZone
	m.utmNorth = src.utmNorth
}

// mapFile is the on-disk layout, gob-encoded and gzip-compressed.
type mapFile struct {
	Width    int
	Height   int
	Names    []string
	Bands    [][]float32
	UTMX     float64
	UTMY     float64
	ScaleX   float64
	ScaleY   float64
	CustomX  float64
	CustomY  float64
	UTMZone  int
	UTMNorth bool
}

// Save writes the raster to path. The write goes through a temp file and
// rename so a crash never leaves a truncated raster behind.
func (m *Map) Save(path string) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	err := enc.Encode(mapFile{
		Width:    m.width,
		Height:   m.height,
		Names:    m.names,
		Bands:    m.bands,
		UTMX:     m.utmX,
		UTMY:     m.utmY,
		ScaleX:   m.scaleX,
		ScaleY:   m.scaleY,
		CustomX:  m.customX,
		CustomY:  m.customY,
		UTMZone:  m.utmZone,
		UTMNorth: m.utmNorth,
	})
	if err != nil {
		gz.Close()
		return fmt.Errorf("raster: encode %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("raster: compress %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("raster: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("raster: rename %s: %w", path, err)
	}
	return nil
}

// Load reads a raster previously written by Save.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: read %s: %w", path, err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decompress %s: %w", path, err)
	}
	defer gz.Close()
	var f mapFile
	if err := gob.NewDecoder(gz).Decode(&f); err != nil {
		return nil, fmt.Errorf("raster: decode %s: %w", path, err)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("raster: %s: bad dimensions %dx%d", path, f.Width, f.Height)
	}
	if len(f.Names) != len(f.Bands) {
		return nil, fmt.Errorf("raster: %s: %d names for %d bands", path, len(f.Names), len(f.Bands))
	}
	for b, band := range f.Bands {
		if len(band) != f.Width*f.Height {
			return nil, fmt.Errorf("raster: %s: band %d has %d pixels, want %d",
				path, b, len(band), f.Width*f.Height)
		}
	}
	return &Map{
		width:    f.Width,
		height:   f.Height,
		names:    f.Names,
		bands:    f.Bands,
		utmX:     f.UTMX,
		utmY:     f.UTMY,
		scaleX:   f.ScaleX,
		scaleY:   f.ScaleY,
		customX:  f.CustomX,
		customY:  f.CustomY,
		utmZone:  f.UTMZone,
		utmNorth: f.UTMNorth,
	}, nil
}

// Exists reports whether a raster file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
