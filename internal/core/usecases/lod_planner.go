package usecases

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/pkg/metrics"
)

// BBoxPlaceholder is replaced by the tile envelope in level queries.
const BBoxPlaceholder = "!BBOX!"

// MaxTiles bounds the grid of one LOD layer.
const MaxTiles = 1 << 18

// LODRequest is the input of the LOD planner. Levels[i] is displayed between
// Distances[i] and Distances[i+1].
type LODRequest struct {
	ConnInfo  string
	Center    string
	Extent    orb.Bound
	TileSize  float64
	Distances []float64
	Levels    []domain.LevelSource
}

// Plan is a tile grid.
type Plan struct {
	Tiles []domain.TileDescriptor
	NumX  int
	NumY  int
}

// Floor is the process-wide ground box state. The box is placed at most once.
type Floor struct {
	mu     sync.Mutex
	placed bool
}

// Place builds the ground box for extent and hands it to add, unless a box
// was placed before. A failed add leaves the floor unplaced.
func (f *Floor) Place(extent orb.Bound, add func(*domain.Box) error) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placed {
		return false, nil
	}
	if err := add(floorBox(extent)); err != nil {
		return false, err
	}
	f.placed = true
	return true, nil
}

func floorBox(extent orb.Bound) *domain.Box {
	w, h := extent.Max[0]-extent.Min[0], extent.Max[1]-extent.Min[1]
	grey := [4]float64{0.2, 0.2, 0.2, 1}
	return &domain.Box{
		Center:  r3.Vec{X: w / 2, Y: h / 2, Z: -1},
		Size:    r3.Vec{X: w, Y: h},
		Ambient: grey,
		Diffuse: grey,
	}
}

// LODPlanner lays out tile grids for LOD layers.
type LODPlanner struct {
	floor *Floor
}

// NewLODPlanner creates a planner sharing the given floor state. A nil
// floor disables the ground box.
func NewLODPlanner(floor *Floor) *LODPlanner {
	return &LODPlanner{floor: floor}
}

// PlaceFloor places the ground box for extent through add the first time it
// succeeds in the process.
func (p *LODPlanner) PlaceFloor(extent orb.Bound, add func(*domain.Box) error) (bool, error) {
	if p.floor == nil {
		return false, nil
	}
	return p.floor.Place(extent, add)
}

// Plan computes the tile grid and, for every tile and level, the deferred
// resource that loads it. The grid has ceil(extent/tileSize)+1 tiles per
// axis: one extra row and column overlap the extent border.
func (p *LODPlanner) Plan(req LODRequest) (Plan, error) {
	center, numX, numY, err := validateLOD(req)
	if err != nil {
		return Plan{}, err
	}

	ts := req.TileSize
	plan := Plan{NumX: numX, NumY: numY}
	radius := 0.5 * ts * math.Sqrt2
	n := len(req.Distances)

	plan.Tiles = make([]domain.TileDescriptor, 0, plan.NumX*plan.NumY)
	for ix := 0; ix < plan.NumX; ix++ {
		for iy := 0; iy < plan.NumY; iy++ {
			xm := req.Extent.Min[0] + float64(ix)*ts
			ym := req.Extent.Min[1] + float64(iy)*ts
			bbox := orb.Bound{Min: orb.Point{xm, ym}, Max: orb.Point{xm + ts, ym + ts}}

			tile := domain.TileDescriptor{
				ID:     domain.TileID{X: ix, Y: iy},
				BBox:   bbox,
				Center: r3.Sub(r3.Vec{X: xm + .5*ts, Y: ym + .5*ts}, center),
				Radius: radius,
				Levels: make([]domain.LevelQuery, 0, n-1),
			}
			for i := 0; i < n-1; i++ {
				src := req.Levels[i]
				q := domain.SourceQuery{
					ConnInfo:       req.ConnInfo,
					Center:         req.Center,
					FeatureID:      src.FeatureID,
					GeometryColumn: src.GeometryColumn,
					Query:          TileQuery(src.Query, bbox),
				}
				tile.Levels = append(tile.Levels, domain.LevelQuery{
					Level:    i,
					Child:    n - 2 - i,
					Query:    q.Query,
					Near:     math.Min(req.Distances[i], req.Distances[i+1]),
					Far:      math.Max(req.Distances[i], req.Distances[i+1]),
					Resource: q.Resource(),
				})
			}
			sort.Slice(tile.Levels, func(a, b int) bool {
				return tile.Levels[a].Near < tile.Levels[b].Near
			})
			plan.Tiles = append(plan.Tiles, tile)
		}
	}
	metrics.TilesPlanned.Add(float64(len(plan.Tiles)))
	return plan, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validateLOD checks the request and returns the center offset and the grid
// size.
func validateLOD(req LODRequest) (r3.Vec, int, int, error) {
	center, err := domain.ParseCenter(req.Center)
	if err != nil {
		return r3.Vec{}, 0, 0, err
	}
	ts := req.TileSize
	if !finite(ts) || ts <= 0 {
		return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "tile_size", Reason: fmt.Sprintf("must be a positive number, got %v", ts)}
	}
	ext := req.Extent
	if !finite(ext.Min[0]) || !finite(ext.Min[1]) || !finite(ext.Max[0]) || !finite(ext.Max[1]) {
		return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "extend", Reason: "coordinates must be finite"}
	}
	if ext.Max[0] < ext.Min[0] || ext.Max[1] < ext.Min[1] {
		return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "extend", Reason: "max corner is below min corner"}
	}

	// Computed in floating point: a tiny tile over a wide extent must not
	// overflow int.
	nx := math.Ceil((ext.Max[0]-ext.Min[0])/ts) + 1
	ny := math.Ceil((ext.Max[1]-ext.Min[1])/ts) + 1
	if !finite(nx*ny) || nx*ny > MaxTiles {
		return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "tile_size", Reason: fmt.Sprintf("%gx%g tiles exceed the limit of %d", nx, ny, MaxTiles)}
	}

	n := len(req.Distances)
	if n < 2 {
		return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "lod", Reason: fmt.Sprintf("at least 2 distances required, got %d", n)}
	}
	for _, d := range req.Distances {
		if !finite(d) {
			return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "lod", Reason: fmt.Sprintf("distance %v is not finite", d)}
		}
	}
	increasing := req.Distances[1] > req.Distances[0]
	for i := 0; i < n-1; i++ {
		if d0, d1 := req.Distances[i], req.Distances[i+1]; d0 == d1 || (d1 > d0) != increasing {
			return r3.Vec{}, 0, 0, &domain.ConfigError{Key: "lod", Reason: "distances must be strictly monotonic"}
		}
	}
	for i := 0; i < n-1; i++ {
		if i >= len(req.Levels) {
			return r3.Vec{}, 0, 0, domain.Missing(fmt.Sprintf("query_%d", i))
		}
		l := req.Levels[i]
		switch {
		case l.FeatureID == "":
			return r3.Vec{}, 0, 0, domain.Missing(fmt.Sprintf("feature_id_%d", i))
		case l.GeometryColumn == "":
			return r3.Vec{}, 0, 0, domain.Missing(fmt.Sprintf("geometry_column_%d", i))
		case l.Query == "":
			return r3.Vec{}, 0, 0, domain.Missing(fmt.Sprintf("query_%d", i))
		case !strings.Contains(l.Query, BBoxPlaceholder):
			return r3.Vec{}, 0, 0, &domain.ConfigError{Key: fmt.Sprintf("query_%d", i), Reason: "missing " + BBoxPlaceholder + " placeholder"}
		}
	}
	return center, int(nx), int(ny), nil
}

// TileQuery substitutes every !BBOX! in a level query with the tile envelope.
func TileQuery(template string, bbox orb.Bound) string {
	env := fmt.Sprintf("ST_MakeEnvelope(%s,%s,%s,%s)",
		formatCoord(bbox.Min[0]), formatCoord(bbox.Min[1]),
		formatCoord(bbox.Max[0]), formatCoord(bbox.Max[1]))
	return strings.ReplaceAll(template, BBoxPlaceholder, env)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
