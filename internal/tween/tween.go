// Package tween interpolates visual sprite state between simulation
// ticks. The renderer calls Setup after each tick to snapshot state,
// Interpolate at sub-tick rate to nudge drawables toward the midpoint,
// and Restore before the next tick so mid-frame interpolation never
// leaks back into script logic.
package tween

import "math"

// AABB is a drawable's axis-aligned bounding box size in stage units.
type AABB struct {
	Width  float64
	Height float64
}

// Drawable is the renderer-side handle the interpolator mutates. Updates
// affect only what is drawn, never the target's logical state.
type Drawable interface {
	UpdatePosition(x, y float64)
	UpdateDirection(direction float64)
	UpdateScale(x, y float64)
	UpdateGhost(ghost float64)
	AABB() AABB
}

// State is the per-target snapshot taken at Setup.
type State struct {
	X         float64
	Y         float64
	Direction float64
	ScaleX    float64
	ScaleY    float64
	Costume   int
	Ghost     float64
}

// Target is the interpolator's view of one sprite: its current logical
// state, its drawable, and the snapshot from the previous tick.
type Target struct {
	Visible   bool
	IsStage   bool
	X         float64
	Y         float64
	Direction float64
	ScaleX    float64
	ScaleY    float64
	Costume   int
	Ghost     float64
	Drawable  Drawable

	// Data is the previous tick's snapshot; nil disables interpolation.
	Data *State
}

// Setup snapshots every visible non-stage target. Targets that are
// hidden or the stage get their snapshot cleared.
func Setup(targets []*Target) {
	for _, t := range targets {
		if t.IsStage || !t.Visible {
			t.Data = nil
			continue
		}
		t.Data = &State{
			X:         t.X,
			Y:         t.Y,
			Direction: t.Direction,
			ScaleX:    t.ScaleX,
			ScaleY:    t.ScaleY,
			Costume:   t.Costume,
			Ghost:     t.Ghost,
		}
	}
}

// Restore snaps every snapshotted target's drawable back to the target's
// own state.
func Restore(targets []*Target) {
	for _, t := range targets {
		if t.Data == nil || t.Drawable == nil {
			continue
		}
		d := t.Drawable
		d.UpdatePosition(t.X, t.Y)
		d.UpdateDirection(t.Direction)
		d.UpdateScale(t.ScaleX, t.ScaleY)
		d.UpdateGhost(t.Ghost)
	}
}

// Interpolate moves drawables halfway between the snapshot and the
// current state, skipping anything that looks like an intentional jump.
func Interpolate(targets []*Target) {
	for _, t := range targets {
		st := t.Data
		if st == nil || !t.Visible || t.Drawable == nil {
			continue
		}
		d := t.Drawable

		xDistance := math.Abs(t.X - st.X)
		yDistance := math.Abs(t.Y - st.Y)
		if xDistance > 0.1 || yDistance > 0.1 {
			aabb := d.AABB()
			// Tolerance scales with the drawable so small sprites do not
			// smear across large teleports.
			xTolerance := math.Min(50, 10+aabb.Width)
			yTolerance := math.Min(50, 10+aabb.Height)
			if xDistance < xTolerance && yDistance < yTolerance {
				d.UpdatePosition((t.X+st.X)/2, (t.Y+st.Y)/2)
			}
		}

		ghostChange := math.Abs(t.Ghost - st.Ghost)
		if ghostChange > 0 && ghostChange < 25 {
			d.UpdateGhost((t.Ghost + st.Ghost) / 2)
		}

		if t.Costume == st.Costume {
			if t.Direction != st.Direction {
				// Average the two angles by summing their unit vectors.
				currentRadians := t.Direction * math.Pi / 180
				startingRadians := st.Direction * math.Pi / 180
				average := math.Atan2(
					math.Sin(currentRadians)+math.Sin(startingRadians),
					math.Cos(currentRadians)+math.Cos(startingRadians),
				) * 180 / math.Pi
				// TODO: do not interpolate on large changes
				d.UpdateDirection(average)
			}

			sameXSign := math.Signbit(t.ScaleX) == math.Signbit(st.ScaleX)
			sameYSign := math.Signbit(t.ScaleY) == math.Signbit(st.ScaleY)
			if sameXSign && sameYSign {
				if math.Abs(t.ScaleX-st.ScaleX) < 100 {
					d.UpdateScale((t.ScaleX+st.ScaleX)/2, (t.ScaleY+st.ScaleY)/2)
				}
			}
		}
	}
}
