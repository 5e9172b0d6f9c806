package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// LayerMode distinguishes eagerly meshed layers from paged ones.
type LayerMode int

const (
	LayerModeSimple LayerMode = iota
	LayerModeLOD
)

func (m LayerMode) String() string {
	if m == LayerModeLOD {
		return "lod"
	}
	return "simple"
}

func (m LayerMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// LayerState is the lifecycle state of a layer.
type LayerState int

const (
	LayerStateUnloaded LayerState = iota
	LayerStateLoading
	LayerStateLoaded
	LayerStateFailed
)

func (s LayerState) String() string {
	switch s {
	case LayerStateLoading:
		return "loading"
	case LayerStateLoaded:
		return "loaded"
	case LayerStateFailed:
		return "failed"
	}
	return "unloaded"
}

func (s LayerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Layer is the status record of a vector layer.
type Layer struct {
	ID        string     `json:"id"`
	Mode      LayerMode  `json:"mode"`
	State     LayerState `json:"state"`
	Visible   bool       `json:"visible"`
	Tiles     int        `json:"tiles,omitempty"`
	Triangles int        `json:"triangles,omitempty"`
	LoadedAt  time.Time  `json:"loaded_at"`
}

// Layer lifecycle event types.
const (
	LayerEventLoaded   = "loaded"
	LayerEventFailed   = "failed"
	LayerEventUnloaded = "unloaded"
	LayerEventShown    = "shown"
	LayerEventHidden   = "hidden"
)

// LayerEvent is published on every lifecycle transition.
type LayerEvent struct {
	Type      string    `json:"type"`
	LayerID   string    `json:"layer_id"`
	Mode      string    `json:"mode,omitempty"`
	Tiles     int       `json:"tiles,omitempty"`
	Triangles int       `json:"triangles,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// VectorLayerRequest is a parsed loadVectorPostgis command. LOD is nil for
// simple layers, in which case Source is used.
type VectorLayerRequest struct {
	ID       string
	ConnInfo string
	Center   string
	Source   LevelSource
	LOD      *LODSpec
}

// LODSpec describes the tiling of a LOD layer. Levels[i] is displayed
// between Distances[i] and Distances[i+1].
type LODSpec struct {
	Extent    orb.Bound
	TileSize  float64
	Distances []float64
	Levels    []LevelSource
}

// Feature is one row returned by a feature source.
type Feature struct {
	ID  string
	WKT string
}
