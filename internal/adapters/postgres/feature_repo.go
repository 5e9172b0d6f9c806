package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/pkg/metrics"
)

// FeatureRepo implements ports.FeatureRepository with pgx. Each distinct
// conn_info gets its own pool, opened on first use and reused afterwards.
type FeatureRepo struct {
	maxConns int32

	mu    sync.Mutex
	pools map[string]*DB
}

// NewFeatureRepo creates a new FeatureRepo.
func NewFeatureRepo(maxConns int32) *FeatureRepo {
	return &FeatureRepo{maxConns: maxConns, pools: make(map[string]*DB)}
}

// FeatureSQL wraps a user query so that every row yields the feature id and
// the geometry as WKT. Column names are quoted; the query runs as a subselect.
func FeatureSQL(q domain.SourceQuery) string {
	inner := strings.TrimRight(strings.TrimSpace(q.Query), "; \t\n")
	return fmt.Sprintf("SELECT (%s)::text, ST_AsText(%s) FROM (%s) AS horao_source",
		pgx.Identifier{q.FeatureID}.Sanitize(),
		pgx.Identifier{q.GeometryColumn}.Sanitize(),
		inner)
}

// Features runs the query. Rows with a NULL geometry are omitted.
func (r *FeatureRepo) Features(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error) {
	db, err := r.pool(ctx, q.ConnInfo)
	if err != nil {
		return nil, err
	}
	defer func() { metrics.UpdateDBPoolMetrics(db.Pool.Stat()) }()

	rows, err := db.Pool.Query(ctx, FeatureSQL(q))
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var features []domain.Feature
	for rows.Next() {
		var (
			id  *string
			wkt *string
		)
		if err := rows.Scan(&id, &wkt); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		if wkt == nil {
			continue
		}
		f := domain.Feature{WKT: *wkt}
		if id != nil {
			f.ID = *id
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	return features, nil
}

func (r *FeatureRepo) pool(ctx context.Context, connInfo string) (*DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.pools[connInfo]; ok {
		return db, nil
	}
	db, err := New(ctx, connInfo, r.maxConns)
	if err != nil {
		return nil, &domain.ConnectionError{ConnInfo: connInfo, Err: err}
	}
	r.pools[connInfo] = db
	return db, nil
}

// Close releases every pool.
func (r *FeatureRepo) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, db := range r.pools {
		db.Close()
		delete(r.pools, k)
	}
}
