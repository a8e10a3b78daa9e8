package render

import (
	"context"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// HTMLFile writes the bound markup as-is. It needs no browser and is used for
// template previews.
type HTMLFile struct{}

var _ Renderer = HTMLFile{}

// Render writes markup to outPath.
func (HTMLFile) Render(ctx context.Context, markup, outPath string) error {
	if err := ctx.Err(); err != nil {
		return model.NewRenderError("html", err)
	}
	if err := writeFile(outPath, []byte(markup)); err != nil {
		return model.NewRenderError("html", err)
	}
	return nil
}
