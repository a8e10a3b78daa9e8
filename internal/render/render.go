// Package render turns bound template markup into an output file.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Renderer writes markup to outPath. Implementations must not leave a
// partial file at outPath when they fail.
type Renderer interface {
	Render(ctx context.Context, markup, outPath string) error
}

// Func adapts a function to the Renderer interface.
type Func func(ctx context.Context, markup, outPath string) error

// Render calls f.
func (f Func) Render(ctx context.Context, markup, outPath string) error {
	return f(ctx, markup, outPath)
}

// writeFile writes data next to path and renames it into place.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing output: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting output mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("moving output into place: %w", err)
	}
	return nil
}
