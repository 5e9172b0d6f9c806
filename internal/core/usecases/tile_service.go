package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/core/ports"
	"github.com/samirrijal/horao/internal/pkg/metrics"
)

// TileService resolves deferred resources into meshes: query the feature
// source, parse, triangulate and build. Meshes are cached when a cache is
// configured. Safe for concurrent use.
type TileService struct {
	features ports.FeatureRepository
	cache    ports.CacheService
	ttl      int
}

// NewTileService creates a new TileService. cache may be nil.
func NewTileService(features ports.FeatureRepository, cache ports.CacheService, ttlSeconds int) *TileService {
	return &TileService{features: features, cache: cache, ttl: ttlSeconds}
}

// MeshCacheKey is the cache key of the mesh built for a resource.
func MeshCacheKey(resource string) string {
	return fmt.Sprintf("horao:mesh:%016x", xxhash.Sum64String(resource))
}

// Resolve implements ports.TileResolver.
func (s *TileService) Resolve(ctx context.Context, resource string) (domain.Node, error) {
	m, _, err := s.ResolveMesh(ctx, resource)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ResolveMesh builds the mesh of a resource. Unparsable rows and
// non-surface geometries are skipped, invalid geometries are meshed anyway;
// both are reported in the returned stats.
func (s *TileService) ResolveMesh(ctx context.Context, resource string) (*domain.RenderableMesh, MeshStats, error) {
	start := time.Now()
	m, stats, err := s.resolve(ctx, resource)
	if err != nil {
		metrics.TileResolutions.WithLabelValues("error").Inc()
		return nil, stats, err
	}
	metrics.TileResolutions.WithLabelValues("ok").Inc()
	metrics.TileResolveDuration.Observe(time.Since(start).Seconds())
	return m, stats, nil
}

func (s *TileService) resolve(ctx context.Context, resource string) (*domain.RenderableMesh, MeshStats, error) {
	q, err := domain.ParseResource(resource)
	if err != nil {
		return nil, MeshStats{}, err
	}
	origin, err := domain.ParseCenter(q.Center)
	if err != nil {
		return nil, MeshStats{}, err
	}

	key := MeshCacheKey(resource)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var m domain.RenderableMesh
			if err := json.Unmarshal(data, &m); err == nil {
				metrics.CacheHits.WithLabelValues("mesh").Inc()
				return &m, MeshStats{Triangles: m.NumTriangles()}, nil
			}
			slog.Warn("evicting corrupt mesh cache entry", "key", key)
			if err := s.cache.Delete(ctx, key); err != nil {
				slog.Warn("cannot evict mesh cache entry", "key", key, "error", err)
			}
		}
		metrics.CacheMisses.WithLabelValues("mesh").Inc()
	}

	features, err := s.features.Features(ctx, q)
	if err != nil {
		return nil, MeshStats{}, fmt.Errorf("fetch features: %w", err)
	}

	b := NewMeshBuilder(origin)
	unparsable := 0
	for _, f := range features {
		g, err := domain.ParseWKT(f.WKT)
		if err != nil {
			unparsable++
			metrics.GeometriesProcessed.WithLabelValues("parse_error").Inc()
			slog.Debug("skipping unparsable geometry", "feature", f.ID, "error", err)
			continue
		}
		if err := b.Push(g); err != nil && !errors.Is(err, domain.ErrNotTriangulable) {
			slog.Debug("invalid geometry meshed", "feature", f.ID, "error", err)
		}
	}
	m := b.Build()
	stats := b.Stats()
	stats.Unparsable = unparsable

	if s.cache != nil {
		if data, err := json.Marshal(m); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}
	return m, stats, nil
}
