package domain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/pkg/geospatial"
)

// Validity is the derived validity of a geometry.
type Validity struct {
	Valid  bool
	Reason string
}

// Validity checks the geometry tree: ring structure, planarity, ring
// self-intersection, hole placement and winding, and face orientation of
// polyhedral surfaces. Curve types are not analysed.
func (g Geometry) Validity() Validity {
	if reason := g.invalidReason(); reason != "" {
		return Validity{Reason: reason}
	}
	return Validity{Valid: true}
}

func (g Geometry) invalidReason() string {
	switch g.Type {
	case GeometryTypePolygon:
		return PolygonProblem(g.Rings)
	case GeometryTypeTriangle:
		if len(g.Rings) > 0 && len(g.Rings[0]) != 4 {
			return "triangle must have exactly 4 points"
		}
		return PolygonProblem(g.Rings)
	case GeometryTypeLineString:
		if len(g.Points) == 1 {
			return "line has a single point"
		}
	case GeometryTypePolyhedralSurface, GeometryTypeTIN:
		faces := make([][]r3.Vec, 0, len(g.Children))
		for i, c := range g.Children {
			if reason := c.invalidReason(); reason != "" {
				return fmt.Sprintf("face %d: %s", i, reason)
			}
			if len(c.Rings) > 0 {
				faces = append(faces, c.Rings[0])
			}
		}
		if geospatial.InconsistentOrientation(faces) {
			return "faces have inconsistent orientation"
		}
	case GeometryTypeCircularString, GeometryTypeCompoundCurve, GeometryTypeCurvePolygon, GeometryTypeMultiCurve:
		return ""
	default:
		for i, c := range g.Children {
			if reason := c.invalidReason(); reason != "" {
				return fmt.Sprintf("element %d: %s", i, reason)
			}
		}
	}
	return ""
}

// PolygonProblem returns the reason a polygon given by its rings is invalid,
// or "" when it is valid or empty.
func PolygonProblem(rings []Ring) string {
	if len(rings) == 0 {
		return ""
	}
	for _, r := range rings {
		if reason := geospatial.RingProblem(r); reason != "" {
			return reason
		}
	}
	return geospatial.ProjectPolygon(RingCoords(rings)).Problem()
}

// RingCoords converts rings to plain coordinate slices.
func RingCoords(rings []Ring) [][]r3.Vec {
	out := make([][]r3.Vec, len(rings))
	for i, r := range rings {
		out[i] = r
	}
	return out
}
