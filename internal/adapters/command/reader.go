package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const maxLineSize = 4 << 20

// Feed sends the lines of the file at path, then the lines of stdin, to
// lines. An unreadable file is reported and skipped. It returns when both
// inputs are exhausted or ctx is done; lines is not closed.
func Feed(ctx context.Context, lines chan<- string, path string, stdin io.Reader) error {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("cannot open input", "path", path, "error", err)
		} else {
			err = scan(ctx, f, lines)
			f.Close()
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
		}
	}
	if stdin == nil {
		return nil
	}
	if err := scan(ctx, stdin, lines); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func scan(ctx context.Context, r io.Reader, lines chan<- string) error {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for s.Scan() {
		select {
		case lines <- s.Text():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err()
}
