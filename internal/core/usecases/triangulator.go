package usecases

import (
	"fmt"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/pkg/geospatial"
)

// Triangulate meshes a surface geometry: polygons (with holes) in the
// best-fit plane of their outer ring, polyhedral surface and TIN faces each
// in their own plane, collections member by member with non-surface members
// skipped.
//
// An invalid geometry still yields its best-effort triangles, returned
// together with a *domain.InvalidGeometryError. Points, lines and curves
// fail with domain.ErrNotTriangulable.
func Triangulate(g domain.Geometry) (domain.TriangleSet, error) {
	if !g.Type.Triangulable() {
		return nil, fmt.Errorf("%v: %w", g.Type, domain.ErrNotTriangulable)
	}

	var tris domain.TriangleSet
	clean := appendTriangles(g, &tris)

	if v := g.Validity(); !v.Valid {
		return tris, &domain.InvalidGeometryError{Type: g.Type, Reason: v.Reason}
	}
	if !clean {
		return tris, &domain.InvalidGeometryError{Type: g.Type, Reason: "ear clipping found no valid ear"}
	}
	return tris, nil
}

func appendTriangles(g domain.Geometry, out *domain.TriangleSet) bool {
	switch g.Type {
	case domain.GeometryTypePolygon, domain.GeometryTypeTriangle:
		if len(g.Rings) == 0 {
			return true
		}
		tris, ok := geospatial.ProjectPolygon(domain.RingCoords(g.Rings)).Triangulate()
		for _, t := range tris {
			*out = append(*out, domain.Triangle(t))
		}
		return ok
	default:
		ok := true
		for _, c := range g.Children {
			if !c.Type.Triangulable() {
				continue
			}
			if !appendTriangles(c, out) {
				ok = false
			}
		}
		return ok
	}
}
