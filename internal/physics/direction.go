package physics

// Direction is the side of the first shape relative to the second.
type Direction uint8

const (
	Above Direction = iota + 1 // first shape sits on top of the second
	Below
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Above:
		return "above"
	case Below:
		return "below"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// Horizontal reports whether the contact happened on a side face.
func (d Direction) Horizontal() bool { return d == Left || d == Right }

// ResolveDirection classifies the contact between a and b from a's point of
// view using the minimum-translation axis: the axis with the smaller
// penetration is the contact side. Equal penetration resolves vertically.
// Coincident centres resolve to Above / Left.
func ResolveDirection(a, b AABB) Direction {
	ox, oy := a.Overlap(b)
	ca, cb := a.Center(), b.Center()
	if oy <= ox {
		if ca.Y <= cb.Y {
			return Above
		}
		return Below
	}
	if ca.X <= cb.X {
		return Left
	}
	return Right
}
