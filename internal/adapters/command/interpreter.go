package command

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/pkg/metrics"
)

// LayerController is the part of the layer service the interpreter drives.
type LayerController interface {
	LoadVector(ctx context.Context, req domain.VectorLayerRequest) error
	Unload(ctx context.Context, id string) error
	Show(ctx context.Context, id string) error
	Hide(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, attrs Attributes) error

// Interpreter executes command lines one at a time. Failures are written
// to the output as <error msg="..."/> and never stop the stream.
type Interpreter struct {
	layers   LayerController
	commands map[string]handlerFunc
}

// NewInterpreter creates an interpreter over a layer controller.
func NewInterpreter(layers LayerController) *Interpreter {
	in := &Interpreter{layers: layers}
	in.commands = map[string]handlerFunc{
		"loadVectorPostgis": in.loadVectorPostgis,
		"loadRasterGDAL":    notImplemented,
		"loadElevation":     notImplemented,
		"unloadLayer":       in.withID(layers.Unload),
		"showLayer":         in.withID(layers.Show),
		"hideLayer":         in.withID(layers.Hide),
		"setSymbology":      notImplemented,
		"setFullExtent":     notImplemented,
	}
	return in
}

// Run executes lines until the channel is closed or ctx is done.
func (in *Interpreter) Run(ctx context.Context, lines <-chan string, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			_ = in.Execute(ctx, line, out)
		}
	}
}

// Execute runs a single line and returns its error after reporting it.
// Blank and comment lines do nothing.
func (in *Interpreter) Execute(ctx context.Context, line string, out io.Writer) error {
	cmd, attrs, ok := ParseLine(line)
	if !ok {
		return nil
	}
	if cmd == "help" {
		metrics.CommandsTotal.WithLabelValues(cmd, "ok").Inc()
		_, err := io.WriteString(out, Usage)
		return err
	}

	var diag Diagnostics
	handler, known := in.commands[cmd]
	if !known {
		metrics.CommandsTotal.WithLabelValues("unknown", "error").Inc()
		err := fmt.Errorf("unknown command '%s'", cmd)
		diag.Addf("%v.", err)
		writeError(out, &diag)
		return err
	}

	err := handler(ctx, attrs)
	if err == nil {
		metrics.CommandsTotal.WithLabelValues(cmd, "ok").Inc()
		return nil
	}
	metrics.CommandsTotal.WithLabelValues(cmd, status(err)).Inc()
	slog.Debug("command failed", "command", cmd, "error", err)
	diag.Add(err)
	diag.Addf("cannot %s", cmd)
	writeError(out, &diag)
	return err
}

func writeError(out io.Writer, diag *Diagnostics) {
	if _, err := fmt.Fprintf(out, "<error msg=\"%s\"/>\n", html.EscapeString(diag.String())); err != nil {
		slog.Error("cannot write diagnostic", "error", err)
	}
}

func status(err error) string {
	var ce *domain.ConfigError
	switch {
	case errors.As(err, &ce):
		return "config_error"
	case errors.Is(err, domain.ErrNotImplemented):
		return "not_implemented"
	default:
		return "error"
	}
}

func (in *Interpreter) loadVectorPostgis(ctx context.Context, attrs Attributes) error {
	req, err := VectorRequest(attrs)
	if err != nil {
		return err
	}
	return in.layers.LoadVector(ctx, req)
}

func (in *Interpreter) withID(fn func(ctx context.Context, id string) error) handlerFunc {
	return func(ctx context.Context, attrs Attributes) error {
		id, err := attrs.Require("id")
		if err != nil {
			return err
		}
		return fn(ctx, id)
	}
}

func notImplemented(context.Context, Attributes) error {
	return domain.ErrNotImplemented
}

// Usage is printed by the help command.
const Usage = `commands:
  loadVectorPostgis id="" conn_info="" center="x y [z]" feature_id="" geometry_column="" query=""
  loadVectorPostgis id="" conn_info="" center="x y [z]" extend="xmin ymin,xmax ymax" tile_size="" lod="d0 d1 ... dn"
                    feature_id_i="" geometry_column_i="" query_i="" (for i in 0..n-1, query_i must contain !BBOX!)
  unloadLayer id=""
  showLayer id=""
  hideLayer id=""
  loadRasterGDAL, loadElevation, setSymbology, setFullExtent (not implemented)
  help
`
