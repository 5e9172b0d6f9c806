package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by commands that are accepted but have no backend.
	ErrNotImplemented = errors.New("not implemented")

	// ErrLayerNotFound indicates an id that is not currently loaded.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrDuplicateLayer indicates an id that is already loaded.
	ErrDuplicateLayer = errors.New("layer already exists")

	// ErrNotTriangulable is returned when a point, line or curve reaches the triangulator.
	ErrNotTriangulable = errors.New("geometry type cannot be triangulated")

	// ErrEmptyLayer indicates a simple layer whose query produced no triangles.
	ErrEmptyLayer = errors.New("layer is empty")

	// ErrCacheMiss is returned by caches for absent keys.
	ErrCacheMiss = errors.New("cache miss")
)

// ParseError indicates malformed geometry text. It is fatal to that one
// geometry only.
type ParseError struct {
	Pos int
	Msg string
}

func newParseError(pos int, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wkt: %s at position %d", e.Msg, e.Pos)
}

// InvalidGeometryError reports a geometric validity failure. The geometry is
// still meshed on a best-effort basis.
type InvalidGeometryError struct {
	Type   GeometryType
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	if e.Type != GeometryTypeUnknown {
		return fmt.Sprintf("invalid geometry (%v): %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

// ConfigError indicates a missing or malformed command parameter.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

// Missing builds the ConfigError for an absent key.
func Missing(key string) *ConfigError {
	return &ConfigError{Key: key, Reason: "missing required key"}
}

// ConnectionError wraps a failure to reach a data source.
type ConnectionError struct {
	ConnInfo string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %q: %v", e.ConnInfo, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
