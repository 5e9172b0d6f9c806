// Package scene is an in-memory scene graph: named root nodes with
// visibility, a loader registry for deferred resources, and a pager that
// materializes PagedLOD children around an eye point.
package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/core/ports"
)

// ErrNoLoader is returned for resources whose suffix has no registered loader.
var ErrNoLoader = errors.New("no loader for resource")

// Graph implements ports.Scene. It is safe for concurrent use.
type Graph struct {
	workers int

	mu       sync.RWMutex
	nodes    map[string]*entry
	loaders  []loader
	index    *rtreego.Rtree
	tiles    map[string][]*tileRef
	maxRange float64
}

type entry struct {
	node    domain.Node
	visible bool
}

type loader struct {
	suffix   string
	resolver ports.TileResolver
}

// NewGraph creates an empty graph whose pager resolves at most workers
// tiles at a time.
func NewGraph(workers int) *Graph {
	if workers < 1 {
		workers = 1
	}
	return &Graph{
		workers: workers,
		nodes:   make(map[string]*entry),
		index:   rtreego.NewTree(3, 25, 50),
		tiles:   make(map[string][]*tileRef),
	}
}

// RegisterLoader routes resources ending in suffix to resolver. Later
// registrations for the same suffix replace earlier ones.
func (g *Graph) RegisterLoader(suffix string, resolver ports.TileResolver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, l := range g.loaders {
		if l.suffix == suffix {
			g.loaders[i].resolver = resolver
			return
		}
	}
	g.loaders = append(g.loaders, loader{suffix: suffix, resolver: resolver})
}

// Resolve dispatches a deferred resource to the loader registered for its
// suffix.
func (g *Graph) Resolve(ctx context.Context, resource string) (domain.Node, error) {
	g.mu.RLock()
	var r ports.TileResolver
	for _, l := range g.loaders {
		if strings.HasSuffix(resource, l.suffix) {
			r = l.resolver
			break
		}
	}
	g.mu.RUnlock()
	if r == nil {
		return nil, fmt.Errorf("%q: %w", resource, ErrNoLoader)
	}
	return r.Resolve(ctx, resource)
}

// AddNode adds a visible root node. Ids are unique.
func (g *Graph) AddNode(id string, node domain.Node) error {
	if node == nil {
		return fmt.Errorf("node %q is nil", id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("node %q: %w", id, domain.ErrDuplicateLayer)
	}
	g.nodes[id] = &entry{node: node, visible: true}

	var refs []*tileRef
	walkPaged(node, func(p *domain.PagedLOD) {
		ref := &tileRef{layer: id, lod: p, children: make(map[int]domain.Node), pending: make(map[int]bool)}
		g.index.Insert(ref)
		refs = append(refs, ref)
		for _, r := range p.Ranges {
			if r.Max > g.maxRange {
				g.maxRange = r.Max
			}
		}
	})
	if len(refs) > 0 {
		g.tiles[id] = refs
	}
	return nil
}

// RemoveNode removes a root node together with any paged-in children.
func (g *Graph) RemoveNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("node %q: %w", id, domain.ErrLayerNotFound)
	}
	for _, ref := range g.tiles[id] {
		g.index.Delete(ref)
		ref.removed = true
	}
	delete(g.tiles, id)
	delete(g.nodes, id)
	return nil
}

// SetVisible toggles a root node. Hidden nodes are not paged.
func (g *Graph) SetVisible(id string, visible bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node %q: %w", id, domain.ErrLayerNotFound)
	}
	e.visible = visible
	return nil
}

// Node returns a root node and its visibility.
func (g *Graph) Node(id string) (domain.Node, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.nodes[id]
	if !ok {
		return nil, false, fmt.Errorf("node %q: %w", id, domain.ErrLayerNotFound)
	}
	return e.node, e.visible, nil
}

// IDs lists the root node ids in order.
func (g *Graph) IDs() []string {
	g.mu.RLock()
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	g.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Resident counts the paged-in children under a root node.
func (g *Graph) Resident(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, ref := range g.tiles[id] {
		n += len(ref.children)
	}
	return n
}

func walkPaged(n domain.Node, fn func(*domain.PagedLOD)) {
	switch v := n.(type) {
	case *domain.PagedLOD:
		fn(v)
	case *domain.Group:
		for _, c := range v.Children {
			walkPaged(c, fn)
		}
	}
}

// tileRef is the index entry of one PagedLOD tile.
type tileRef struct {
	layer    string
	lod      *domain.PagedLOD
	children map[int]domain.Node
	pending  map[int]bool
	removed  bool
}

// Bounds implements rtreego.Spatial with the box around the bounding sphere.
func (t *tileRef) Bounds() rtreego.Rect {
	return cube(t.lod.Center.X, t.lod.Center.Y, t.lod.Center.Z, t.lod.Radius)
}

func cube(x, y, z, half float64) rtreego.Rect {
	side := math.Max(2*half, 1e-9)
	rect, _ := rtreego.NewRect(rtreego.Point{x - side/2, y - side/2, z - side/2}, []float64{side, side, side})
	return rect
}
