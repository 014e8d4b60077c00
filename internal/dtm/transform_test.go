package dtm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix_ApplyIdentity(t *testing.T) {
	t.Parallel()

	m := Pose6D{}.Matrix()
	p := m.Apply(Point{X: 1, Y: -2, Z: 3})
	assert.Equal(t, Point{X: 1, Y: -2, Z: 3}, p)
}

func TestMatrix_ApplyTranslation(t *testing.T) {
	t.Parallel()

	m := Pose6D{X: 10, Y: 20, Z: -1}.Matrix()
	p := m.Apply(Point{X: 1, Y: 1, Z: 1})
	assert.InDelta(t, 11, p.X, 1e-6)
	assert.InDelta(t, 21, p.Y, 1e-6)
	assert.InDelta(t, 0, p.Z, 1e-6)

	x, y, z := m.Translation()
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)
	assert.Equal(t, -1.0, z)
}

func TestMatrix_ApplyYaw(t *testing.T) {
	t.Parallel()

	// Quarter turn about Z: +X maps to +Y.
	m := Pose6D{Yaw: math.Pi / 2}.Matrix()
	p := m.Apply(Point{X: 1, Y: 0, Z: 0})
	assert.InDelta(t, 0, p.X, 1e-6)
	assert.InDelta(t, 1, p.Y, 1e-6)
	assert.InDelta(t, 0, p.Z, 1e-6)
}

func TestPose6D_MatrixRoundTrip(t *testing.T) {
	t.Parallel()

	poses := []Pose6D{
		{},
		{Yaw: 0.3, Pitch: -0.2, Roll: 0.7, X: 12, Y: -4, Z: 1.5},
		{Yaw: -2.5, Pitch: 0.05, Roll: -0.9, X: 0.1, Y: 0.2, Z: 0.3},
		{Yaw: math.Pi - 0.01, X: 1000, Y: -1000},
	}
	for _, want := range poses {
		got := want.Matrix().Pose6D()
		assert.InDelta(t, want.Yaw, got.Yaw, 1e-9)
		assert.InDelta(t, want.Pitch, got.Pitch, 1e-9)
		assert.InDelta(t, want.Roll, got.Roll, 1e-9)
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
		assert.InDelta(t, want.Z, got.Z, 1e-9)
	}
}
