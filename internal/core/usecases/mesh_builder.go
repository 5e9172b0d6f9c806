package usecases

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/pkg/metrics"
)

// MeshStats counts what went into a mesh. Unparsable is filled by the
// tile service.
type MeshStats struct {
	Pushed     int
	Invalid    int
	Skipped    int
	Unparsable int
	Triangles  int
}

// MeshBuilder accumulates the triangles of several geometries into one
// buffer anchored at a local origin. It is not safe for concurrent use.
type MeshBuilder struct {
	origin  r3.Vec
	tris    []domain.Triangle
	invalid []*domain.InvalidGeometryError
	stats   MeshStats
}

// NewMeshBuilder creates a builder whose vertices are stored relative to origin.
func NewMeshBuilder(origin r3.Vec) *MeshBuilder {
	return &MeshBuilder{origin: origin}
}

// Push triangulates g and appends the triangles. An invalid geometry keeps
// its triangles; the *domain.InvalidGeometryError is returned for
// information only. Non-surface geometries are counted as skipped and fail
// with domain.ErrNotTriangulable.
func (b *MeshBuilder) Push(g domain.Geometry) error {
	tris, err := Triangulate(g)
	if errors.Is(err, domain.ErrNotTriangulable) {
		b.stats.Skipped++
		metrics.GeometriesProcessed.WithLabelValues("skipped").Inc()
		return err
	}

	b.stats.Pushed++
	for _, t := range tris {
		b.tris = append(b.tris, domain.Triangle{
			r3.Sub(t[0], b.origin),
			r3.Sub(t[1], b.origin),
			r3.Sub(t[2], b.origin),
		})
	}
	b.stats.Triangles += len(tris)
	metrics.TrianglesProduced.Add(float64(len(tris)))

	var invalid *domain.InvalidGeometryError
	if errors.As(err, &invalid) {
		b.stats.Invalid++
		b.invalid = append(b.invalid, invalid)
		metrics.GeometriesProcessed.WithLabelValues("invalid").Inc()
		return err
	}
	metrics.GeometriesProcessed.WithLabelValues("meshed").Inc()
	return nil
}

// Invalid lists the validity failures seen so far.
func (b *MeshBuilder) Invalid() []*domain.InvalidGeometryError {
	return b.invalid
}

// Stats reports pushed, invalid and skipped counts.
func (b *MeshBuilder) Stats() MeshStats {
	return b.stats
}

// Build produces the indexed mesh. Vertices shared by position are merged
// and each vertex normal is the normalised, area-weighted sum of the normals
// of the faces around it.
func (b *MeshBuilder) Build() *domain.RenderableMesh {
	m := &domain.RenderableMesh{
		Origin:  b.origin,
		Indices: make([]uint32, 0, 3*len(b.tris)),
	}
	index := make(map[r3.Vec]uint32)
	for _, t := range b.tris {
		n := t.Normal()
		for _, v := range t {
			i, ok := index[v]
			if !ok {
				i = uint32(len(m.Vertices))
				index[v] = i
				m.Vertices = append(m.Vertices, v)
				m.Normals = append(m.Normals, r3.Vec{})
			}
			m.Normals[i] = r3.Add(m.Normals[i], n)
			m.Indices = append(m.Indices, i)
		}
	}
	for i, n := range m.Normals {
		if l := r3.Norm(n); l > 0 {
			m.Normals[i] = r3.Scale(1/l, n)
		} else {
			m.Normals[i] = r3.Vec{Z: 1}
		}
	}
	return m
}
