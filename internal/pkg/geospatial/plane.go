package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is a local 2D frame embedded in 3D space. U, V and Normal are unit
// vectors with Cross(U, V) == Normal.
type Plane struct {
	Origin r3.Vec
	Normal r3.Vec
	U, V   r3.Vec
}

// NewellNormal returns the (unnormalised) Newell normal of a ring. Its length
// is twice the area enclosed by the ring projected on the plane, and it points
// towards the side from which the ring is seen counter-clockwise.
func NewellNormal(ring []r3.Vec) r3.Vec {
	var n r3.Vec
	for i, cur := range ring {
		next := ring[(i+1)%len(ring)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// Centroid is the mean of the points.
func Centroid(pts []r3.Vec) r3.Vec {
	var c r3.Vec
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(pts)), c)
}

// FitPlane returns the best-fit plane of a ring: Newell normal through the
// vertex centroid. Rings whose signed area cancels out, such as bow ties,
// fall back to the widest triangle spanned by their vertices. ok is false
// when the vertices are collinear.
func FitPlane(ring []r3.Vec) (p Plane, ok bool) {
	p = Plane{Origin: Centroid(ring), Normal: r3.Vec{Z: 1}, U: r3.Vec{X: 1}, V: r3.Vec{Y: 1}}
	n := NewellNormal(ring)
	if r3.Norm(n)/2 < DegenerateArea {
		n = spanNormal(ring)
	}
	l := r3.Norm(n)
	if l/2 < DegenerateArea || math.IsNaN(l) {
		return p, false
	}
	n = r3.Scale(1/l, n)

	// seed the basis with the axis least aligned with the normal
	axis := r3.Vec{X: 1}
	switch ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z); {
	case ay <= ax && ay <= az:
		axis = r3.Vec{Y: 1}
	case az <= ax && az <= ay:
		axis = r3.Vec{Z: 1}
	}
	u := r3.Unit(r3.Cross(n, axis))
	v := r3.Cross(n, u)
	return Plane{Origin: p.Origin, Normal: n, U: u, V: v}, true
}

// spanNormal is the normal of the largest triangle formed by the first
// vertex, the vertex farthest from it and any third vertex.
func spanNormal(ring []r3.Vec) r3.Vec {
	if len(ring) < 3 {
		return r3.Vec{}
	}
	o := ring[0]
	far := o
	for _, v := range ring[1:] {
		if r3.Norm(r3.Sub(v, o)) > r3.Norm(r3.Sub(far, o)) {
			far = v
		}
	}
	var best r3.Vec
	for _, v := range ring[1:] {
		if c := r3.Cross(r3.Sub(far, o), r3.Sub(v, o)); r3.Norm(c) > r3.Norm(best) {
			best = c
		}
	}
	return best
}

// Project maps a point to plane coordinates.
func (p Plane) Project(v r3.Vec) orb.Point {
	d := r3.Sub(v, p.Origin)
	return orb.Point{r3.Dot(d, p.U), r3.Dot(d, p.V)}
}

// Distance is the signed distance from v to the plane.
func (p Plane) Distance(v r3.Vec) float64 {
	return r3.Dot(r3.Sub(v, p.Origin), p.Normal)
}
