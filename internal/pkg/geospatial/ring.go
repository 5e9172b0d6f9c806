package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Location of a point relative to a ring.
type Location int

const (
	Outside Location = iota
	OnBoundary
	Inside
)

// SignedArea is the shoelace area of an open or closed ring, positive when
// counter-clockwise.
func SignedArea(ring []orb.Point) float64 {
	var a float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// cross is the z component of (a-o) x (b-o).
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func orient(o, a, b orb.Point, eps float64) int {
	c := cross(o, a, b)
	switch {
	case c > eps:
		return 1
	case c < -eps:
		return -1
	}
	return 0
}

// onSegment reports whether p, known to be collinear with ab, lies within it.
func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

// SegmentsIntersect reports whether the closed segments ab and cd share at
// least one point.
func SegmentsIntersect(a, b, c, d orb.Point, eps float64) bool {
	o1, o2 := orient(a, b, c, eps), orient(a, b, d, eps)
	o3, o4 := orient(c, d, a, eps), orient(c, d, b, eps)
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	return (o1 == 0 && onSegment(a, b, c)) ||
		(o2 == 0 && onSegment(a, b, d)) ||
		(o3 == 0 && onSegment(c, d, a)) ||
		(o4 == 0 && onSegment(c, d, b))
}

// ProperCross reports whether ab and cd cross at a single interior point of
// both segments.
func ProperCross(a, b, c, d orb.Point, eps float64) bool {
	return orient(a, b, c, eps)*orient(a, b, d, eps) < 0 &&
		orient(c, d, a, eps)*orient(c, d, b, eps) < 0
}

// SelfIntersects reports whether an open ring (no repeated closing point)
// touches or crosses itself. Spikes, where the boundary doubles back on
// itself, count as self-intersections.
func SelfIntersects(ring []orb.Point, eps float64) bool {
	n := len(ring)
	if n < 3 {
		return true
	}
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		c := ring[(i+2)%n]
		// adjacent edges only meet at b unless they fold back
		if orient(a, b, c, eps) == 0 && dot(a, b, c) > 0 {
			return true
		}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if SegmentsIntersect(a, b, ring[j], ring[(j+1)%n], eps) {
				return true
			}
		}
	}
	return false
}

// dot is (a-b).(c-b); positive when the turn at b is sharper than a right angle.
func dot(a, b, c orb.Point) float64 {
	return (a[0]-b[0])*(c[0]-b[0]) + (a[1]-b[1])*(c[1]-b[1])
}

// Locate classifies p against an open ring with the crossing-number rule.
func Locate(p orb.Point, ring []orb.Point, eps float64) Location {
	n := len(ring)
	in := false
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		if orient(a, b, p, eps) == 0 && onSegment(a, b, p) {
			return OnBoundary
		}
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				in = !in
			}
		}
	}
	if in {
		return Inside
	}
	return Outside
}

// RingsCross reports whether any edge of r properly crosses any edge of s.
func RingsCross(r, s []orb.Point, eps float64) bool {
	for i := range r {
		a, b := r[i], r[(i+1)%len(r)]
		for j := range s {
			if ProperCross(a, b, s[j], s[(j+1)%len(s)], eps) {
				return true
			}
		}
	}
	return false
}

// Bound is the bounding box of a set of points.
func Bound(pts []orb.Point) orb.Bound {
	if len(pts) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b
}
