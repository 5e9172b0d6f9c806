package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// DegenerateArea is the area below which a ring is ignored.
const DegenerateArea = 1e-12

// planarity tolerance, relative to the extent of the face
const planarTolerance = 1e-6

// RingProblem checks the structure of a raw ring.
func RingProblem(ring []r3.Vec) string {
	switch {
	case len(ring) < 4:
		return "ring has fewer than 4 points"
	case ring[0] != ring[len(ring)-1]:
		return "ring is not closed"
	}
	return ""
}

// OpenRing drops repeated consecutive points and the closing point.
func OpenRing(ring []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, 0, len(ring))
	for _, v := range ring {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Surface is a polygon projected on the best-fit plane of its outer ring.
// Rings index into Points3 and Points, outer ring first.
type Surface struct {
	Plane      Plane
	Points3    []r3.Vec
	Points     []orb.Point
	Rings      [][]int
	Degenerate bool
}

// ProjectPolygon builds the planar frame for a polygon given as raw rings.
// A polygon whose outer ring spans no area is Degenerate and produces no
// triangles.
func ProjectPolygon(rings [][]r3.Vec) Surface {
	var s Surface
	if len(rings) == 0 {
		s.Degenerate = true
		return s
	}
	outer := OpenRing(rings[0])
	plane, ok := FitPlane(outer)
	s.Plane = plane
	s.Degenerate = !ok
	for k, r := range rings {
		open := outer
		if k > 0 {
			open = OpenRing(r)
		}
		idx := make([]int, len(open))
		for j, v := range open {
			idx[j] = len(s.Points3)
			s.Points3 = append(s.Points3, v)
			s.Points = append(s.Points, plane.Project(v))
		}
		s.Rings = append(s.Rings, idx)
	}
	return s
}

func (s Surface) ring(k int) []orb.Point {
	out := make([]orb.Point, len(s.Rings[k]))
	for j, i := range s.Rings[k] {
		out[j] = s.Points[i]
	}
	return out
}

func (s Surface) diagonal() float64 {
	if len(s.Points3) == 0 {
		return 0
	}
	lo, hi := s.Points3[0], s.Points3[0]
	for _, v := range s.Points3[1:] {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return r3.Norm(r3.Sub(hi, lo))
}

// Problem returns the first reason the surface is invalid, or "" when it is
// valid. Degenerate surfaces are not considered invalid.
func (s Surface) Problem() string {
	if s.Degenerate {
		return ""
	}
	tol := planarTolerance * math.Max(1, s.diagonal())
	for _, v := range s.Points3 {
		if math.Abs(s.Plane.Distance(v)) > tol {
			return "points are not coplanar"
		}
	}

	eps := Tolerance(s.Points)
	outer := s.ring(0)
	if SelfIntersects(outer, eps) {
		return "ring self-intersection"
	}
	var holes [][]orb.Point
	for k := 1; k < len(s.Rings); k++ {
		h := s.ring(k)
		area := SignedArea(h)
		if math.Abs(area) < DegenerateArea {
			continue
		}
		if SelfIntersects(h, eps) {
			return "ring self-intersection"
		}
		if area > 0 {
			return "hole has the same orientation as the outer ring"
		}
		for _, p := range h {
			if Locate(p, outer, eps) == Outside {
				return "hole lies outside the outer ring"
			}
		}
		if RingsCross(outer, h, eps) {
			return "hole crosses the outer ring"
		}
		for _, g := range holes {
			if RingsCross(g, h, eps) {
				return "holes cross each other"
			}
			if anyInside(h, g, eps) || anyInside(g, h, eps) {
				return "nested holes"
			}
		}
		holes = append(holes, h)
	}
	return ""
}

func anyInside(pts, ring []orb.Point, eps float64) bool {
	for _, p := range pts {
		if Locate(p, ring, eps) == Inside {
			return true
		}
	}
	return false
}

// Triangulate ear-clips the surface and lifts the triangles back to 3D. The
// triangles wind the same way as the outer ring. ok is false when clipping
// had to cut through the boundary.
func (s Surface) Triangulate() (tris [][3]r3.Vec, ok bool) {
	if s.Degenerate || len(s.Rings) == 0 {
		return nil, true
	}
	rings := [][]int{s.Rings[0]}
	for k := 1; k < len(s.Rings); k++ {
		if len(s.Rings[k]) >= 3 && math.Abs(SignedArea(s.ring(k))) >= DegenerateArea {
			rings = append(rings, s.Rings[k])
		}
	}
	idx, ok := EarClip(s.Points, rings)
	tris = make([][3]r3.Vec, len(idx))
	for k, t := range idx {
		tris[k] = [3]r3.Vec{s.Points3[t[0]], s.Points3[t[1]], s.Points3[t[2]]}
	}
	return tris, ok
}

// InconsistentOrientation reports whether adjacent faces of a surface wind
// in opposite directions, that is whether any directed edge is used twice.
func InconsistentOrientation(faces [][]r3.Vec) bool {
	seen := make(map[[2]r3.Vec]bool)
	for _, f := range faces {
		ring := OpenRing(f)
		for i, a := range ring {
			e := [2]r3.Vec{a, ring[(i+1)%len(ring)]}
			if seen[e] {
				return true
			}
			seen[e] = true
		}
	}
	return false
}
