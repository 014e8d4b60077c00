// Package dtm maintains an online digital terrain model around a mobile
// robot. Point clouds are fused into a W×H raster of per-cell elevation
// statistics; the active window slides across a larger world as the robot
// moves, persisting 1/3-sized maplet tiles to disk and reloading them when
// they scroll back into view. A dynamic fusion mode classifies cells as
// flat (ground) or vertical (obstacle) so transient obstacles can occlude
// the ground without destroying its statistics.
//
// A Model is single-threaded and non-reentrant; callers serialize all
// calls on one instance. Distinct models may be driven independently.
package dtm
