package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// A4 in inches.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// Chrome prints markup to an A4 PDF with a headless Chrome or Chromium.
type Chrome struct {
	execPath  string
	noSandbox bool
	logger    zerolog.Logger
}

var _ Renderer = (*Chrome)(nil)

// ChromeOption configures a Chrome renderer.
type ChromeOption func(*Chrome)

// WithExecPath selects the browser binary instead of searching PATH.
func WithExecPath(path string) ChromeOption {
	return func(c *Chrome) { c.execPath = path }
}

// WithNoSandbox disables the browser sandbox, which containers usually need.
func WithNoSandbox(noSandbox bool) ChromeOption {
	return func(c *Chrome) { c.noSandbox = noSandbox }
}

// WithLogger sets the renderer's logger.
func WithLogger(logger zerolog.Logger) ChromeOption {
	return func(c *Chrome) { c.logger = logger }
}

// NewChrome creates a Chrome renderer.
func NewChrome(opts ...ChromeOption) *Chrome {
	c := &Chrome{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render starts a browser, loads markup into a blank page and prints it. The
// browser is stopped when ctx is done, so a deadline on ctx bounds the whole
// render.
func (c *Chrome) Render(ctx context.Context, markup, outPath string) error {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if c.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if c.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("getting frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, markup).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("printing to PDF: %w", err)
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		// chromedp reports a cancelled browser in its own terms; keep the
		// context's error reachable for callers.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return model.NewRenderError("chrome", err)
	}

	pages, err := verifyPDF(pdf)
	if err != nil {
		return model.NewRenderError("verify", err)
	}
	c.logger.Debug().Int("pages", pages).Int("bytes", len(pdf)).Str("output", outPath).Msg("pdf rendered")

	if err := writeFile(outPath, pdf); err != nil {
		return model.NewRenderError("write", err)
	}
	return nil
}

// verifyPDF checks the printed bytes parse as a PDF and returns the page count.
func verifyPDF(pdf []byte) (int, error) {
	if len(pdf) == 0 {
		return 0, errors.New("browser returned an empty document")
	}
	if err := api.Validate(bytes.NewReader(pdf), pdfConfig()); err != nil {
		return 0, fmt.Errorf("validating PDF: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(pdf), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("counting PDF pages: %w", err)
	}
	if pages < 1 {
		return 0, errors.New("PDF has no pages")
	}
	return pages, nil
}

func pdfConfig() *pdfmodel.Configuration {
	// Keep pdfcpu from creating its config directory under the user's home.
	pdfmodel.ConfigPath = "disable"
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return conf
}
