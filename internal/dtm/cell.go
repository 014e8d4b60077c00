package dtm

// Band indices into the backing raster, in the fixed band order shared by
// the window raster and every maplet file.
const (
	BandNPoints = iota
	BandZMax
	BandZMin
	BandZMean
	BandVariance
	BandLastUpdate
	NumBands
)

// BandNames are the raster band names, in band order.
var BandNames = []string{"N_POINTS", "Z_MAX", "Z_MIN", "Z_MEAN", "VARIANCE", "LAST_UPDATE"}

// Cell holds the fused elevation statistics of one raster cell. A cell
// with NPoints == 0 is empty and every other field is meaningless; readers
// must treat them as zero. Variance holds the running sum of squared
// deviations; divide by N-1 (SampleVariance) only on export.
type Cell struct {
	NPoints    float32
	ZMax       float32
	ZMin       float32
	ZMean      float32
	Variance   float32
	LastUpdate float32 // seconds since the model time base
}

// Empty reports whether the cell has no observations.
func (c *Cell) Empty() bool { return c.NPoints == 0 }

// AddObservation folds a single z observation into the cell using
// Welford's incremental mean/variance update, stamping it with t.
func (c *Cell) AddObservation(z, t float32) {
	if c.NPoints == 0 {
		*c = Cell{NPoints: 1, ZMax: z, ZMin: z, ZMean: z, LastUpdate: t}
		return
	}
	n := c.NPoints
	mean := c.ZMean
	c.NPoints = n + 1
	if z > c.ZMax {
		c.ZMax = z
	}
	if z < c.ZMin {
		c.ZMin = z
	}
	c.ZMean = (mean*n + z) / c.NPoints
	c.Variance += (z - mean) * (z - c.ZMean)
	c.LastUpdate = t
}

// Merge folds src into c using the parallel-variance combination
// Vd + Vs + delta²·Nd·Ns/N, both variances in sum-of-squares form.
func (c *Cell) Merge(src Cell) {
	if src.NPoints == 0 {
		return
	}
	if c.NPoints == 0 {
		*c = src
		return
	}
	nd := c.NPoints
	ns := src.NPoints
	n := nd + ns
	delta := src.ZMean - c.ZMean
	if src.ZMax > c.ZMax {
		c.ZMax = src.ZMax
	}
	if src.ZMin < c.ZMin {
		c.ZMin = src.ZMin
	}
	c.ZMean = (c.ZMean*nd + src.ZMean*ns) / n
	c.Variance = c.Variance + src.Variance + delta*delta*nd*ns/n
	c.NPoints = n
	if src.LastUpdate > c.LastUpdate {
		c.LastUpdate = src.LastUpdate
	}
}

// SampleVariance converts the running sum of squared deviations into a
// sample variance. Cells with two or fewer observations report 0.
func (c *Cell) SampleVariance() float32 {
	if c.NPoints > 2 {
		return c.Variance / (c.NPoints - 1)
	}
	return 0
}

func clearCells(cells []Cell) {
	for i := range cells {
		cells[i] = Cell{}
	}
}

func clearBools(b []bool) {
	for i := range b {
		b[i] = false
	}
}
