package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/core/ports"
	"github.com/samirrijal/horao/internal/pkg/metrics"
)

// FloorNodeID is the scene id of the ground box.
const FloorNodeID = "floor"

// LayerService loads vector layers into the scene and tracks their
// lifecycle. Failed loads leave no trace in the registry.
type LayerService struct {
	scene     ports.Scene
	tiles     ports.TileResolver
	planner   *LODPlanner
	publisher ports.EventPublisher

	mu     sync.RWMutex
	layers map[string]*domain.Layer
}

// NewLayerService creates a new LayerService. publisher may be nil.
func NewLayerService(scene ports.Scene, tiles ports.TileResolver, planner *LODPlanner, publisher ports.EventPublisher) *LayerService {
	return &LayerService{
		scene:     scene,
		tiles:     tiles,
		planner:   planner,
		publisher: publisher,
		layers:    make(map[string]*domain.Layer),
	}
}

// LoadVector loads a layer. Without LOD the single query is meshed at once
// and an empty result fails the load. With LOD only the tile grid is built;
// tiles are resolved later by the scene.
func (s *LayerService) LoadVector(ctx context.Context, req domain.VectorLayerRequest) error {
	if err := validateVector(req); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.layers[req.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("layer %q: %w", req.ID, domain.ErrDuplicateLayer)
	}
	layer := &domain.Layer{ID: req.ID, State: domain.LayerStateLoading}
	if req.LOD != nil {
		layer.Mode = domain.LayerModeLOD
	}
	s.layers[req.ID] = layer
	s.mu.Unlock()

	var (
		count int
		err   error
	)
	if req.LOD != nil {
		count, err = s.loadLOD(req)
	} else {
		count, err = s.loadSimple(ctx, req)
	}

	s.mu.Lock()
	if err != nil {
		delete(s.layers, req.ID)
	} else {
		if req.LOD != nil {
			layer.Tiles = count
		} else {
			layer.Triangles = count
		}
		layer.State = domain.LayerStateLoaded
		layer.Visible = true
		layer.LoadedAt = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		s.publish(ctx, &domain.LayerEvent{Type: domain.LayerEventFailed, LayerID: req.ID, Mode: layer.Mode.String(), Error: err.Error()})
		return err
	}
	event := &domain.LayerEvent{Type: domain.LayerEventLoaded, LayerID: req.ID, Mode: layer.Mode.String()}
	if req.LOD != nil {
		event.Tiles = count
	} else {
		event.Triangles = count
	}
	metrics.LayersLoaded.Inc()
	slog.Info("layer loaded", "layer", req.ID, "mode", event.Mode, "tiles", event.Tiles, "triangles", event.Triangles)
	s.publish(ctx, event)
	return nil
}

func validateVector(req domain.VectorLayerRequest) error {
	switch {
	case req.ID == "":
		return domain.Missing("id")
	case req.ID == FloorNodeID:
		return &domain.ConfigError{Key: "id", Reason: fmt.Sprintf("%q is reserved for the ground box", FloorNodeID)}
	case req.ConnInfo == "":
		return domain.Missing("conn_info")
	case req.Center == "":
		return domain.Missing("center")
	}
	if _, err := domain.ParseCenter(req.Center); err != nil {
		return err
	}
	if req.LOD != nil {
		return nil
	}
	switch {
	case req.Source.FeatureID == "":
		return domain.Missing("feature_id")
	case req.Source.GeometryColumn == "":
		return domain.Missing("geometry_column")
	case req.Source.Query == "":
		return domain.Missing("query")
	}
	return nil
}

func (s *LayerService) loadSimple(ctx context.Context, req domain.VectorLayerRequest) (int, error) {
	q := domain.SourceQuery{
		ConnInfo:       req.ConnInfo,
		Center:         req.Center,
		FeatureID:      req.Source.FeatureID,
		GeometryColumn: req.Source.GeometryColumn,
		Query:          req.Source.Query,
	}
	node, err := s.tiles.Resolve(ctx, q.Resource())
	if err != nil {
		return 0, fmt.Errorf("load layer %q: %w", req.ID, err)
	}
	mesh, ok := node.(*domain.RenderableMesh)
	if !ok || mesh.NumTriangles() == 0 {
		return 0, fmt.Errorf("load layer %q: %w", req.ID, domain.ErrEmptyLayer)
	}
	if err := s.scene.AddNode(req.ID, mesh); err != nil {
		return 0, fmt.Errorf("add layer %q: %w", req.ID, err)
	}
	return mesh.NumTriangles(), nil
}

func (s *LayerService) loadLOD(req domain.VectorLayerRequest) (int, error) {
	plan, err := s.planner.Plan(LODRequest{
		ConnInfo:  req.ConnInfo,
		Center:    req.Center,
		Extent:    req.LOD.Extent,
		TileSize:  req.LOD.TileSize,
		Distances: req.LOD.Distances,
		Levels:    req.LOD.Levels,
	})
	if err != nil {
		return 0, err
	}

	group := &domain.Group{Children: make([]domain.Node, 0, len(plan.Tiles))}
	for _, t := range plan.Tiles {
		group.Children = append(group.Children, t.PagedLOD())
	}
	if err := s.scene.AddNode(req.ID, group); err != nil {
		return 0, fmt.Errorf("add layer %q: %w", req.ID, err)
	}
	_, err = s.planner.PlaceFloor(req.LOD.Extent, func(box *domain.Box) error {
		return s.scene.AddNode(FloorNodeID, box)
	})
	if err != nil {
		slog.Warn("cannot add floor", "error", err)
	}
	return len(plan.Tiles), nil
}

// Unload removes a loaded layer from the scene.
func (s *LayerService) Unload(ctx context.Context, id string) error {
	s.mu.Lock()
	layer, ok := s.layers[id]
	if !ok || layer.State != domain.LayerStateLoaded {
		s.mu.Unlock()
		return fmt.Errorf("layer %q: %w", id, domain.ErrLayerNotFound)
	}
	if err := s.scene.RemoveNode(id); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("remove layer %q: %w", id, err)
	}
	delete(s.layers, id)
	s.mu.Unlock()

	metrics.LayersLoaded.Dec()
	s.publish(ctx, &domain.LayerEvent{Type: domain.LayerEventUnloaded, LayerID: id, Mode: layer.Mode.String()})
	return nil
}

// Show makes a loaded layer visible.
func (s *LayerService) Show(ctx context.Context, id string) error {
	return s.setVisible(ctx, id, true)
}

// Hide makes a loaded layer invisible. The layer stays loaded.
func (s *LayerService) Hide(ctx context.Context, id string) error {
	return s.setVisible(ctx, id, false)
}

func (s *LayerService) setVisible(ctx context.Context, id string, visible bool) error {
	s.mu.Lock()
	layer, ok := s.layers[id]
	if !ok || layer.State != domain.LayerStateLoaded {
		s.mu.Unlock()
		return fmt.Errorf("layer %q: %w", id, domain.ErrLayerNotFound)
	}
	if err := s.scene.SetVisible(id, visible); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set visibility of %q: %w", id, err)
	}
	layer.Visible = visible
	s.mu.Unlock()

	event := domain.LayerEventHidden
	if visible {
		event = domain.LayerEventShown
	}
	s.publish(ctx, &domain.LayerEvent{Type: event, LayerID: id, Mode: layer.Mode.String()})
	return nil
}

// Layer returns a snapshot of one layer.
func (s *LayerService) Layer(id string) (domain.Layer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	layer, ok := s.layers[id]
	if !ok {
		return domain.Layer{}, fmt.Errorf("layer %q: %w", id, domain.ErrLayerNotFound)
	}
	return *layer, nil
}

// Layers returns a snapshot of every layer, sorted by id.
func (s *LayerService) Layers() []domain.Layer {
	s.mu.RLock()
	out := make([]domain.Layer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, *l)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *LayerService) publish(ctx context.Context, event *domain.LayerEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := s.publisher.PublishLayerEvent(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("publish layer event failed", "layer", event.LayerID, "type", event.Type, "error", err)
	}
}
