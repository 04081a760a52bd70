package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDirectionPicksShallowAxis(t *testing.T) {
	block := BoxAt(Vec{0, 0}, Vec{16, 16})
	cases := []struct {
		name  string
		other AABB
		want  Direction
	}{
		{"landed on top", BoxAt(Vec{2, -15}, Vec{16, 16}), Above},
		{"hit from underneath", BoxAt(Vec{-3, 15}, Vec{16, 16}), Below},
		{"bumped into left face", BoxAt(Vec{-15, 1}, Vec{16, 16}), Left},
		{"bumped into right face", BoxAt(Vec{15, -1}, Vec{16, 16}), Right},
		{"touching top edge", BoxAt(Vec{0, -16}, Vec{16, 16}), Above},
		{"separated by a gap above", BoxAt(Vec{0, -17}, Vec{16, 16}), Above},
		{"tall thin pole from the side", BoxAt(Vec{9, 0}, Vec{3.2, 144}), Right},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveDirection(tc.other, block))
		})
	}
}

func TestResolveDirectionTiePrefersVertical(t *testing.T) {
	a := BoxAt(Vec{15, -15}, Vec{16, 16})
	b := BoxAt(Vec{0, 0}, Vec{16, 16})
	ox, oy := a.Overlap(b)
	assert.Equal(t, ox, oy)
	assert.Equal(t, Above, ResolveDirection(a, b))
	assert.Equal(t, Below, ResolveDirection(b, a))
}

func TestResolveDirectionIsDeterministicAndExclusive(t *testing.T) {
	valid := map[Direction]bool{Above: true, Below: true, Left: true, Right: true}
	b := BoxAt(Vec{0, 0}, Vec{16, 16})
	for dx := -20.0; dx <= 20; dx += 2.5 {
		for dy := -20.0; dy <= 20; dy += 2.5 {
			a := BoxAt(Vec{dx, dy}, Vec{16, 16})
			first := ResolveDirection(a, b)
			assert.True(t, valid[first], "dx=%v dy=%v", dx, dy)
			assert.Equal(t, first, ResolveDirection(a, b))
		}
	}
}

func TestAABBDistance(t *testing.T) {
	b := BoxAt(Vec{0, 0}, Vec{16, 16})
	assert.Zero(t, b.DistanceTo(Vec{3, 3}))
	assert.InDelta(t, 2.0, b.DistanceTo(Vec{10, 0}), 1e-9)
	assert.InDelta(t, 5.0, b.DistanceTo(Vec{11, 12}), 1e-9)
}

func TestVecClamp(t *testing.T) {
	v := Vec{300, 400}.Clamp(250)
	assert.InDelta(t, 250, v.Len(), 1e-9)
	assert.Equal(t, Vec{3, 4}, Vec{3, 4}.Clamp(0))
}
