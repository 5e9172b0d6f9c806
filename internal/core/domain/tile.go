package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// TileID is the grid position of a tile.
type TileID struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (id TileID) String() string {
	return fmt.Sprintf("%d_%d", id.X, id.Y)
}

// LevelSource is the data source of one LOD level.
type LevelSource struct {
	FeatureID      string
	GeometryColumn string
	Query          string
}

// LevelQuery is one level of a tile: the tile-scoped query and the distance
// band in which it is displayed. Child is the paged child slot.
type LevelQuery struct {
	Level    int     `json:"level"`
	Child    int     `json:"child"`
	Query    string  `json:"query"`
	Near     float64 `json:"near"`
	Far      float64 `json:"far"`
	Resource string  `json:"resource"`
}

// TileDescriptor is the deferred-load unit of a LOD layer. Levels are sorted
// nearest first and their bands are contiguous.
type TileDescriptor struct {
	ID     TileID       `json:"id"`
	BBox   orb.Bound    `json:"bbox"`
	Levels []LevelQuery `json:"levels"`
	Center r3.Vec       `json:"center"`
	Radius float64      `json:"radius"`
}

// PagedLOD converts the descriptor into a scene node.
func (d TileDescriptor) PagedLOD() *PagedLOD {
	p := &PagedLOD{
		Tile:   d.ID,
		Center: d.Center,
		Radius: d.Radius,
		Ranges: make([]PagedRange, len(d.Levels)),
	}
	for _, l := range d.Levels {
		p.Ranges[l.Child] = PagedRange{Min: l.Near, Max: l.Far, Resource: l.Resource}
	}
	return p
}
