package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/core/domain"
)

// UpdateStats summarizes one paging pass.
type UpdateStats struct {
	Requested int
	Loaded    int
	Failed    int
	Expired   int
}

type pageJob struct {
	ref      *tileRef
	slot     int
	resource string
}

// Update pages tiles for an eye position: every range of a visible tile
// whose [Min, Max) contains the distance from eye to the tile center is
// resolved, and resident children whose range no longer applies are
// dropped. Tiles are resolved concurrently, at most workers at a time.
// Failures are logged, counted and joined into the returned error; the
// other tiles still load.
func (g *Graph) Update(ctx context.Context, eye r3.Vec) (UpdateStats, error) {
	var stats UpdateStats

	g.mu.Lock()
	stats.Expired = g.expire(eye)
	jobs := g.plan(eye)
	g.mu.Unlock()

	stats.Requested = len(jobs)
	if len(jobs) == 0 {
		return stats, nil
	}

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, g.workers)
		mu   sync.Mutex
		errs []error
	)
	for _, j := range jobs {
		wg.Add(1)
		go func(j pageJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			node, err := g.Resolve(ctx, j.resource)

			g.mu.Lock()
			delete(j.ref.pending, j.slot)
			if err == nil && !j.ref.removed {
				j.ref.children[j.slot] = node
			}
			g.mu.Unlock()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				errs = append(errs, fmt.Errorf("tile %s/%s child %d: %w", j.ref.layer, j.ref.lod.Tile, j.slot, err))
				slog.Warn("tile resolution failed", "layer", j.ref.layer, "tile", j.ref.lod.Tile.String(), "child", j.slot, "error", err)
				return
			}
			stats.Loaded++
		}(j)
	}
	wg.Wait()

	return stats, errors.Join(errs...)
}

// plan marks and returns the slots to resolve. Callers hold g.mu.
func (g *Graph) plan(eye r3.Vec) []pageJob {
	var jobs []pageJob
	for _, ref := range g.candidates(eye) {
		if e, ok := g.nodes[ref.layer]; !ok || !e.visible {
			continue
		}
		d := r3.Norm(r3.Sub(eye, ref.lod.Center))
		for slot, r := range ref.lod.Ranges {
			if !r.Active(d) || r.Resource == "" {
				continue
			}
			if _, ok := ref.children[slot]; ok || ref.pending[slot] {
				continue
			}
			ref.pending[slot] = true
			jobs = append(jobs, pageJob{ref: ref, slot: slot, resource: r.Resource})
		}
	}
	return jobs
}

// candidates returns the tiles that may be within paging range of eye.
// Callers hold g.mu.
func (g *Graph) candidates(eye r3.Vec) []*tileRef {
	if g.index.Size() == 0 || g.maxRange <= 0 {
		return nil
	}
	var spatials []rtreego.Spatial
	if math.IsInf(g.maxRange, 1) {
		for _, refs := range g.tiles {
			for _, ref := range refs {
				spatials = append(spatials, ref)
			}
		}
	} else {
		spatials = g.index.SearchIntersect(cube(eye.X, eye.Y, eye.Z, g.maxRange))
	}
	out := make([]*tileRef, 0, len(spatials))
	for _, s := range spatials {
		out = append(out, s.(*tileRef))
	}
	return out
}

// expire drops resident children whose range no longer contains the eye
// distance, or whose layer is hidden. Callers hold g.mu.
func (g *Graph) expire(eye r3.Vec) int {
	n := 0
	for id, refs := range g.tiles {
		e := g.nodes[id]
		for _, ref := range refs {
			if len(ref.children) == 0 {
				continue
			}
			d := r3.Norm(r3.Sub(eye, ref.lod.Center))
			for slot := range ref.children {
				if e.visible && ref.lod.Ranges[slot].Active(d) {
					continue
				}
				delete(ref.children, slot)
				n++
			}
		}
	}
	return n
}

// Child returns the resident child in a tile slot, if any.
func (g *Graph) Child(id string, tile domain.TileID, slot int) (domain.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, ref := range g.tiles[id] {
		if ref.lod.Tile == tile {
			n, ok := ref.children[slot]
			return n, ok
		}
	}
	return nil, false
}
