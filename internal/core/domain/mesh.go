package domain

import "gonum.org/v1/gonum/spatial/r3"

// Triangle is three vertices, counter-clockwise when seen from the side its
// normal points to.
type Triangle [3]r3.Vec

// Normal is the unnormalised face normal; its length is twice the area.
func (t Triangle) Normal() r3.Vec {
	return r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
}

// Area of the triangle.
func (t Triangle) Area() float64 {
	return r3.Norm(t.Normal()) / 2
}

// TriangleSet is the output of triangulating one geometry.
type TriangleSet []Triangle

// Area is the summed area of all triangles.
func (s TriangleSet) Area() float64 {
	var a float64
	for _, t := range s {
		a += t.Area()
	}
	return a
}

// RenderableMesh is an indexed triangle buffer. Vertices are relative to
// Origin; every index refers to an existing vertex and each consecutive
// triple is one triangle.
type RenderableMesh struct {
	Origin   r3.Vec   `json:"origin"`
	Vertices []r3.Vec `json:"vertices"`
	Normals  []r3.Vec `json:"normals"`
	Indices  []uint32 `json:"indices"`
}

// Kind implements Node.
func (m *RenderableMesh) Kind() NodeKind { return NodeKindMesh }

// NumTriangles is the number of index triples.
func (m *RenderableMesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// Triangle returns the i-th triangle in local coordinates.
func (m *RenderableMesh) Triangle(i int) Triangle {
	return Triangle{
		m.Vertices[m.Indices[3*i]],
		m.Vertices[m.Indices[3*i+1]],
		m.Vertices[m.Indices[3*i+2]],
	}
}
