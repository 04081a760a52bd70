package physics

import "math"

// Vec is a 2D vector in world units. Y grows downward, matching screen space,
// so gravity is positive Y and "up" is negative Y.
type Vec struct {
	X, Y float64
}

func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Half() Vec           { return Vec{v.X / 2, v.Y / 2} }

// Clamp limits the vector length to max.
func (v Vec) Clamp(max float64) Vec {
	l := v.Len()
	if max <= 0 || l <= max {
		return v
	}
	return v.Scale(max / l)
}

// AABB is an axis-aligned box. MinY is the top edge on screen.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// BoxAt returns the box of the given size centred on c.
func BoxAt(c, size Vec) AABB {
	h := size.Half()
	return AABB{MinX: c.X - h.X, MinY: c.Y - h.Y, MaxX: c.X + h.X, MaxY: c.Y + h.Y}
}

func (b AABB) Center() Vec {
	return Vec{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Overlap returns the penetration depth on each axis. Negative values are gaps.
func (b AABB) Overlap(o AABB) (x, y float64) {
	x = math.Min(b.MaxX, o.MaxX) - math.Max(b.MinX, o.MinX)
	y = math.Min(b.MaxY, o.MaxY) - math.Max(b.MinY, o.MinY)
	return x, y
}

// DistanceTo returns the distance from p to the closest point of the box,
// zero when p is inside.
func (b AABB) DistanceTo(p Vec) float64 {
	dx := math.Max(math.Max(b.MinX-p.X, 0), p.X-b.MaxX)
	dy := math.Max(math.Max(b.MinY-p.Y, 0), p.Y-b.MaxY)
	return math.Hypot(dx, dy)
}
