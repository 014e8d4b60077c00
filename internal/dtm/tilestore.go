package dtm

import (
	"fmt"
	"path/filepath"

	"github.com/imclab/atlaas/internal/monitoring"
	"github.com/imclab/atlaas/internal/raster"
	"github.com/imclab/atlaas/internal/security"
)

// Catalog records maplet saves in an external index. Implemented by
// tiledb.Catalog; the store works without one.
type Catalog interface {
	RecordSave(tx, ty int, path, sessionID string) error
}

// TileStore names, locates, reads and writes maplet files keyed by integer
// world tile coordinates. Byte-level raster I/O is delegated to the
// raster package.
type TileStore struct {
	dir     string
	pattern string // two %d verbs: tile x, tile y

	catalog   Catalog
	sessionID string
}

// NewTileStore creates a store rooted at dir. An empty pattern selects
// the default "atlaas.%dx%d.tif".
func NewTileStore(dir, pattern string) *TileStore {
	if pattern == "" {
		pattern = "atlaas.%dx%d.tif"
	}
	return &TileStore{dir: dir, pattern: pattern}
}

// SetCatalog attaches a tile catalog; saves are recorded against
// sessionID. Catalog failures are logged, never fatal: the maplet file on
// disk is the source of truth.
func (s *TileStore) SetCatalog(c Catalog, sessionID string) {
	s.catalog = c
	s.sessionID = sessionID
}

// Path returns the deterministic file path for tile (tx, ty).
func (s *TileStore) Path(tx, ty int) string {
	return filepath.Join(s.dir, fmt.Sprintf(s.pattern, tx, ty))
}

// Exists reports whether a maplet file is present for (tx, ty).
func (s *TileStore) Exists(tx, ty int) bool {
	return raster.Exists(s.Path(tx, ty))
}

// Load reads the maplet for (tx, ty). An absent tile returns (nil, nil).
func (s *TileStore) Load(tx, ty int) (*raster.Map, error) {
	path := s.Path(tx, ty)
	if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
		return nil, err
	}
	if !raster.Exists(path) {
		return nil, nil
	}
	return raster.Load(path)
}

// Save writes the maplet raster for (tx, ty). The caller is responsible
// for having set the maplet transform to the world UTM of the tile.
func (s *TileStore) Save(tx, ty int, m *raster.Map) error {
	path := s.Path(tx, ty)
	if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
		return err
	}
	if err := m.Save(path); err != nil {
		return err
	}
	if s.catalog != nil {
		if err := s.catalog.RecordSave(tx, ty, path, s.sessionID); err != nil {
			monitoring.Logf("dtm: tile catalog record (%d,%d): %v", tx, ty, err)
		}
	}
	return nil
}
