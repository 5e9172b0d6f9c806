package domain

import "gonum.org/v1/gonum/spatial/r3"

// NodeKind identifies the concrete type of a scene node.
type NodeKind int

const (
	NodeKindMesh NodeKind = iota
	NodeKindGroup
	NodeKindPagedLOD
	NodeKindBox
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindMesh:
		return "mesh"
	case NodeKindGroup:
		return "group"
	case NodeKindPagedLOD:
		return "paged_lod"
	case NodeKindBox:
		return "box"
	}
	return "unknown"
}

// Node is anything the scene graph can hold.
type Node interface {
	Kind() NodeKind
}

// Group holds child nodes.
type Group struct {
	Children []Node
}

func (g *Group) Kind() NodeKind { return NodeKindGroup }

// PagedRange is one lazily loaded child of a PagedLOD, active while the eye
// distance to the node center is in [Min, Max).
type PagedRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Resource string  `json:"resource"`
}

// Active reports whether the range applies at the given distance.
func (r PagedRange) Active(distance float64) bool {
	return distance >= r.Min && distance < r.Max
}

// PagedLOD defers loading of its children until the renderer needs them.
// Ranges are indexed by child slot.
type PagedLOD struct {
	Tile   TileID
	Center r3.Vec
	Radius float64
	Ranges []PagedRange
}

func (p *PagedLOD) Kind() NodeKind { return NodeKindPagedLOD }

// Box is a flat shaded box.
type Box struct {
	Center  r3.Vec
	Size    r3.Vec
	Ambient [4]float64
	Diffuse [4]float64
}

func (b *Box) Kind() NodeKind { return NodeKindBox }
