package dtm

import "gonum.org/v1/gonum/stat"

// Merge fuses a sensor-frame cloud into the model: every point is
// transformed to the world frame by t in place (the caller's cloud is
// consumed), the window slides to the robot position taken from the
// translation of t, and the points are folded into the grid. The fusion
// path (static or dynamic) follows the DynamicMerge parameter.
func (a *Model) Merge(cloud []Point, t Matrix) error {
	for i := range cloud {
		cloud[i] = t.Apply(cloud[i])
	}
	robx, roby, _ := t.Translation()
	if err := a.SlideTo(robx, roby); err != nil {
		return err
	}
	if a.dynamicMerge {
		a.Dynamic(cloud)
	} else {
		a.MergeCloud(cloud)
	}
	return nil
}

// MergeCloud folds an already world-frame cloud into the grid (static
// fusion). Points outside the window are skipped.
func (a *Model) MergeCloud(cloud []Point) {
	t := a.refTime()
	for i := range cloud {
		p := &cloud[i]
		idx, ok := a.m.IndexCustom(float64(p.X), float64(p.Y))
		if !ok {
			continue
		}
		a.internal[idx].AddObservation(p.Z, t)
	}
	a.mapSync = false
}

// Dynamic fuses an already world-frame cloud with flat/vertical
// classification. The cloud is first accumulated into the scratch grid;
// cells whose in-frame variance exceeds varianceFactor times the frame's
// mean variance are classified vertical. An obstacle arriving over ground
// stashes the ground statistics; when the obstacle clears, the ground
// re-emerges and the new observations fold into it.
func (a *Model) Dynamic(cloud []Point) {
	clearCells(a.dyninter)
	t := a.refTime()
	for i := range cloud {
		p := &cloud[i]
		idx, ok := a.m.IndexCustom(float64(p.X), float64(p.Y))
		if !ok {
			continue
		}
		a.dyninter[idx].AddObservation(p.Z, t)
	}

	threshold := a.varianceFactor * a.varianceMean()

	for i := range a.dyninter {
		d := &a.dyninter[i]
		if d.NPoints == 0 {
			continue
		}
		isVertical := d.Variance > threshold
		s := &a.internal[i]
		switch {
		case s.NPoints == 0:
			*s = *d
			a.vertical[i] = isVertical
		case a.vertical[i] == isVertical:
			s.Merge(*d)
		case isVertical:
			// Flat cell occluded by an obstacle: remember the ground.
			a.gndinter[i] = *s
			*s = *d
			a.vertical[i] = true
		default:
			// Obstacle cleared: the stashed ground re-emerges.
			*s = a.gndinter[i]
			s.Merge(*d)
			a.vertical[i] = false
		}
		s.LastUpdate = t
	}
	a.mapSync = false
}

// varianceMean converts the scratch grid's variances to sample units in
// place (cells with more than two observations) and returns their mean,
// 0 when no cell qualifies.
func (a *Model) varianceMean() float32 {
	var vals []float64
	for i := range a.dyninter {
		d := &a.dyninter[i]
		if d.NPoints > 2 {
			d.Variance /= d.NPoints - 1
			vals = append(vals, float64(d.Variance))
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return float32(stat.Mean(vals, nil))
}

// Vertical reports the flat/vertical classification of cell idx.
func (a *Model) Vertical(idx int) bool { return a.vertical[idx] }

// Ground returns the stashed ground statistics of cell idx.
func (a *Model) Ground(idx int) Cell { return a.gndinter[idx] }
