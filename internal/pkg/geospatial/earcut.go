package geospatial

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

type vertex struct {
	i          int
	p          orb.Point
	prev, next *vertex
}

func insertAfter(i int, p orb.Point, last *vertex) *vertex {
	v := &vertex{i: i, p: p}
	if last == nil {
		v.prev, v.next = v, v
		return v
	}
	v.next = last.next
	v.prev = last
	last.next.prev = v
	last.next = v
	return v
}

func (v *vertex) unlink() {
	v.next.prev = v.prev
	v.prev.next = v.next
}

// linkRing builds a circular list over ring, reversing it when its
// orientation differs from the requested one.
func linkRing(pts []orb.Point, ring []int, ccw bool) *vertex {
	poly := make([]orb.Point, len(ring))
	for k, i := range ring {
		poly[k] = pts[i]
	}
	var last *vertex
	if (SignedArea(poly) > 0) == ccw {
		for _, i := range ring {
			last = insertAfter(i, pts[i], last)
		}
	} else {
		for k := len(ring) - 1; k >= 0; k-- {
			last = insertAfter(ring[k], pts[ring[k]], last)
		}
	}
	return last
}

// Tolerance returns the collinearity threshold for cross products of a
// point set, relative to its extent.
func Tolerance(pts []orb.Point) float64 {
	b := Bound(pts)
	s := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	return 1e-12 * s * s
}

// EarClip triangulates a polygon given as an outer ring followed by holes.
// Rings are lists of indices into pts without a repeated closing vertex.
// Holes are bridged into the outer ring before clipping. Triangles are
// counter-clockwise. ok is false when a hole could not be bridged or when no
// valid ear existed and a vertex had to be cut anyway.
func EarClip(pts []orb.Point, rings [][]int) (tris [][3]int, ok bool) {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return nil, true
	}
	eps := Tolerance(pts)
	ok = true

	start := linkRing(pts, rings[0], true)
	if len(rings) > 1 && !mergeHoles(pts, rings[1:], start, eps) {
		ok = false
	}

	ear, _ := filterPoints(start, eps)
	stop := ear
	for ear.prev != ear.next {
		prev, next := ear.prev, ear.next
		if isEar(ear, eps) {
			tris = append(tris, [3]int{prev.i, ear.i, next.i})
			ear.unlink()
			ear, stop = next, next
			continue
		}
		ear = next
		if ear != stop {
			continue
		}
		var removed bool
		if ear, removed = filterPoints(ear, eps); removed {
			stop = ear
			continue
		}
		best := ear
		for v := ear.next; v != ear; v = v.next {
			if cross(v.prev.p, v.p, v.next.p) > cross(best.prev.p, best.p, best.next.p) {
				best = v
			}
		}
		tris = append(tris, [3]int{best.prev.i, best.i, best.next.i})
		ear = best.next
		best.unlink()
		stop = ear
		ok = false
	}
	return tris, ok
}

// filterPoints drops duplicate and collinear vertices.
func filterPoints(start *vertex, eps float64) (*vertex, bool) {
	removed := false
	v := start
	for {
		if v.next == v.prev {
			return v, removed
		}
		if v.p == v.next.p || orient(v.prev.p, v.p, v.next.p, eps) == 0 {
			v.unlink()
			removed = true
			v = v.prev
			start = v
			continue
		}
		v = v.next
		if v == start {
			return v, removed
		}
	}
}

func isEar(b *vertex, eps float64) bool {
	a, c := b.prev, b.next
	if orient(a.p, b.p, c.p, eps) <= 0 {
		return false
	}
	for v := c.next; v != a; v = v.next {
		if v.p == a.p || v.p == b.p || v.p == c.p {
			continue
		}
		if orient(v.prev.p, v.p, v.next.p, eps) <= 0 && inTriangle(a.p, b.p, c.p, v.p) {
			return false
		}
	}
	return true
}

// inTriangle tests p against the counter-clockwise triangle abc, boundary
// included.
func inTriangle(a, b, c, p orb.Point) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

type hole struct {
	right *vertex
}

// mergeHoles splices every hole into the outer list through a bridge edge,
// processing holes from right to left.
func mergeHoles(pts []orb.Point, rings [][]int, outer *vertex, eps float64) bool {
	var holes []hole
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		first := linkRing(pts, r, false)
		right := first
		for v := first.next; v != first; v = v.next {
			if v.p[0] > right.p[0] || (v.p[0] == right.p[0] && v.p[1] < right.p[1]) {
				right = v
			}
		}
		holes = append(holes, hole{right: right})
	}
	sort.SliceStable(holes, func(i, j int) bool {
		return holes[i].right.p[0] > holes[j].right.p[0]
	})

	ok := true
	for _, h := range holes {
		bridge := findBridge(h.right, outer, eps)
		if bridge == nil {
			ok = false
			continue
		}
		splice(bridge, h.right)
	}
	return ok
}

// findBridge casts a ray from m towards +x and returns the outer vertex m
// can be connected to without crossing the boundary.
func findBridge(m, outer *vertex, eps float64) *vertex {
	var hit *vertex
	hx := math.Inf(1)
	v := outer
	for {
		// only upward edges face the interior on their left
		a, b := v, v.next
		if a.p[1] <= m.p[1] && m.p[1] <= b.p[1] && a.p[1] != b.p[1] {
			x := a.p[0] + (m.p[1]-a.p[1])*(b.p[0]-a.p[0])/(b.p[1]-a.p[1])
			if x >= m.p[0] && x < hx {
				hx = x
				hit = a
				if b.p[0] > a.p[0] {
					hit = b
				}
			}
		}
		v = v.next
		if v == outer {
			break
		}
	}
	if hit == nil {
		return nil
	}
	i := orb.Point{hx, m.p[1]}
	if hit.p == i {
		return hit
	}

	// a reflex vertex inside (m, i, hit) hides hit; take the one closest in
	// angle to the ray
	best := hit
	tanMin := math.Inf(1)
	a, b, c := m.p, i, hit.p
	if cross(a, b, c) < 0 {
		b, c = c, b
	}
	v = outer
	for {
		if v.p != hit.p && v.p[0] > m.p[0] && inTriangle(a, b, c, v.p) && locallyInside(v, m) {
			tan := math.Abs(m.p[1]-v.p[1]) / (v.p[0] - m.p[0])
			if tan < tanMin || (tan == tanMin && v.p[0] > best.p[0]) {
				best, tanMin = v, tan
			}
		}
		v = v.next
		if v == outer {
			break
		}
	}
	return best
}

// locallyInside reports whether the diagonal from a towards b starts inside
// the polygon.
func locallyInside(a, b *vertex) bool {
	if cross(a.prev.p, a.p, a.next.p) > 0 {
		return cross(a.p, b.p, a.next.p) <= 0 && cross(a.p, a.prev.p, b.p) <= 0
	}
	return cross(a.p, b.p, a.prev.p) > 0 || cross(a.p, a.next.p, b.p) > 0
}

// splice links a to b with a zero-width double edge so that the walk goes
// a, b, around the hole, back to b and a.
func splice(a, b *vertex) {
	a2 := &vertex{i: a.i, p: a.p}
	b2 := &vertex{i: b.i, p: b.p}
	an, bp := a.next, b.prev

	a.next = b
	b.prev = a

	a2.next = an
	an.prev = a2

	b2.next = a2
	a2.prev = b2

	bp.next = b2
	b2.prev = bp
}
