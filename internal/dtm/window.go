package dtm

import (
	"fmt"

	"github.com/imclab/atlaas/internal/monitoring"
	"github.com/imclab/atlaas/internal/raster"
)

// tileOffset addresses one of the nine maplet positions of the window,
// (sx, sy) in {-1, 0, 1}².
type tileOffset struct {
	sx, sy int
}

// SlideTo moves the window so the robot at custom-frame (robx, roby) is
// back inside the centre square. No-op while the robot stays within the
// middle 50%×50% of the window. Otherwise the maplets about to scroll out
// are saved, the grid is shifted, the tile origin is updated and the
// maplets scrolling in are loaded; save strictly precedes shift, shift
// precedes the origin update, and the origin update precedes load.
//
// A save failure aborts the slide with the grid untouched. A load failure
// is logged and leaves the scrolled-in region empty.
func (a *Model) SlideTo(robx, roby float64) error {
	px, py := a.m.PointCustom2Pix(robx, roby)
	cx := px / float64(a.width)
	cy := py / float64(a.height)
	if cx > 0.25 && cx < 0.75 && cy > 0.25 && cy < 0.75 {
		return nil // robot is in the centre square
	}

	dx := 0
	if cx < 0.33 {
		dx = -1
	} else if cx > 0.66 {
		dx = 1
	}
	dy := 0
	if cy < 0.33 {
		dy = -1
	} else if cy > 0.66 {
		dy = 1
	}

	// Flat/vertical state does not survive a window move.
	clearCells(a.gndinter)
	clearBools(a.vertical)

	saves := saveSet(dx, dy)

	if a.tiles != nil {
		// One scratch maplet per slide, reused for every tile.
		sub := &raster.Map{}
		sub.CopyMeta(a.m, a.sw, a.sh)
		for _, o := range saves {
			if err := a.subSave(sub, o.sx, o.sy); err != nil {
				return fmt.Errorf("dtm: slide save tile (%d,%d): %w",
					a.current[0]+o.sx, a.current[1]+o.sy, err)
			}
		}
	}

	a.shift(dx, dy)

	a.current[0] += dx
	a.current[1] += dy

	if a.tiles != nil {
		// The tiles that just became visible mirror the save set,
		// reflected through the new origin.
		for _, o := range saves {
			a.subLoad(-o.sx, -o.sy)
		}
	}

	// Translate the window origin by (dx·sw, dy·sh) pixels, scale unchanged.
	ux, uy := a.m.PointPix2UTM(float64(dx*a.sw), float64(dy*a.sh))
	a.m.SetTransform(ux, uy, a.m.ScaleX(), a.m.ScaleY())
	a.mapSync = false

	a.emit("slide", map[string]any{
		"dx": dx, "dy": dy,
		"tile_x": a.current[0], "tile_y": a.current[1],
		"utm_x": ux, "utm_y": uy,
	})
	return nil
}

// saveSet lists the maplets scrolling out for a shift of (dx, dy): the
// trailing column for a horizontal move, the trailing row for a vertical
// one, the column plus the rest of the trailing row for a diagonal.
func saveSet(dx, dy int) []tileOffset {
	var out []tileOffset
	if dx != 0 {
		for sy := -1; sy <= 1; sy++ {
			out = append(out, tileOffset{-dx, sy})
		}
	}
	if dy != 0 {
		for sx := -1; sx <= 1; sx++ {
			if dx != 0 && sx == -dx {
				continue // already in the trailing column
			}
			out = append(out, tileOffset{sx, -dy})
		}
	}
	return out
}

// shift moves the grid opposite to the robot's motion and zeroes the
// vacated band. Go's copy has memmove semantics, so the overlapping
// row moves are safe in either direction.
func (a *Model) shift(dx, dy int) {
	switch dx {
	case -1:
		for r := 0; r < a.height; r++ {
			row := a.internal[r*a.width : (r+1)*a.width]
			copy(row[a.sw:], row[:2*a.sw])
			clearCells(row[:a.sw])
		}
	case 1:
		for r := 0; r < a.height; r++ {
			row := a.internal[r*a.width : (r+1)*a.width]
			copy(row[:2*a.sw], row[a.sw:])
			clearCells(row[2*a.sw:])
		}
	}

	band := a.sh * a.width
	switch dy {
	case -1:
		copy(a.internal[band:], a.internal[:2*band])
		clearCells(a.internal[:band])
	case 1:
		copy(a.internal[:2*band], a.internal[band:])
		clearCells(a.internal[2*band:])
	}
}

// subSave extracts the sw×sh region at offset (sx, sy) into the scratch
// maplet and writes it at world tile (current + offset). The maplet
// transform is set so its pixel origin equals the world UTM of the tile.
func (a *Model) subSave(sub *raster.Map, sx, sy int) error {
	base := a.sw*(sx+1) + a.sh*a.width*(sy+1)
	for r := 0; r < a.sh; r++ {
		src := a.internal[base+r*a.width : base+r*a.width+a.sw]
		for i := range src {
			writeCell(sub, r*a.sw+i, &src[i])
		}
	}
	ux, uy := a.m.PointPix2UTM(float64(sx*a.sw), float64(sy*a.sh))
	sub.SetTransform(ux, uy, a.m.ScaleX(), a.m.ScaleY())
	return a.tiles.Save(a.current[0]+sx, a.current[1]+sy, sub)
}

// subLoad pastes the maplet at world tile (current + offset) into the
// window region at offset (sx, sy), if its file exists and is readable.
// Unreadable or malformed maplets leave the region empty.
func (a *Model) subLoad(sx, sy int) {
	tx := a.current[0] + sx
	ty := a.current[1] + sy
	sub, err := a.tiles.Load(tx, ty)
	if err != nil {
		monitoring.Logf("dtm: load tile (%d,%d): %v", tx, ty, err)
		return
	}
	if sub == nil {
		return // no file for this tile yet
	}
	if err := a.checkMaplet(sub); err != nil {
		monitoring.Logf("dtm: tile (%d,%d): %v", tx, ty, err)
		return
	}

	base := a.sw*(sx+1) + a.sh*a.width*(sy+1)
	for r := 0; r < a.sh; r++ {
		dst := a.internal[base+r*a.width : base+r*a.width+a.sw]
		for i := range dst {
			dst[i] = readCell(sub, r*a.sw+i)
		}
	}
	a.mapSync = false
}

func (a *Model) checkMaplet(sub *raster.Map) error {
	if err := checkBands(sub); err != nil {
		return err
	}
	if sub.Width() != a.sw || sub.Height() != a.sh {
		return fmt.Errorf("dtm: maplet is %dx%d, want %dx%d",
			sub.Width(), sub.Height(), a.sw, a.sh)
	}
	return nil
}

// SaveCurrents flushes all nine maplets of the current window to disk.
func (a *Model) SaveCurrents() error {
	if a.tiles == nil {
		return nil
	}
	sub := &raster.Map{}
	sub.CopyMeta(a.m, a.sw, a.sh)
	for sy := -1; sy <= 1; sy++ {
		for sx := -1; sx <= 1; sx++ {
			if err := a.subSave(sub, sx, sy); err != nil {
				return fmt.Errorf("dtm: save tile (%d,%d): %w",
					a.current[0]+sx, a.current[1]+sy, err)
			}
		}
	}
	return nil
}
