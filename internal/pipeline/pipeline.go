// Package pipeline assembles a document: it validates the input, resolves
// the document number, computes totals, binds the template, renders the
// output and finally records the number as used.
//
// Nothing is persisted before the render succeeds. A failure at any earlier
// stage releases the reserved number and leaves the counter untouched; a
// failed render also removes any output file it created.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pacioli-dev/pacioli/internal/binder"
	"github.com/pacioli-dev/pacioli/internal/counter"
	"github.com/pacioli-dev/pacioli/internal/input"
	"github.com/pacioli-dev/pacioli/internal/ledger"
	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/render"
	"github.com/pacioli-dev/pacioli/internal/totals"
	"github.com/pacioli-dev/pacioli/internal/validate"
)

// DefaultRenderTimeout bounds a render when no timeout is configured.
const DefaultRenderTimeout = 60 * time.Second

// Recorder stores an audit entry for a finished generation.
type Recorder interface {
	Record(e ledger.Entry) error
}

// TemplateLoader returns the template markup for kind.
type TemplateLoader func(kind model.Kind) (string, error)

// Generator runs the pipeline. Build one with New.
type Generator struct {
	counter   counter.Counter
	renderer  render.Renderer
	templates TemplateLoader
	recorder  Recorder
	now       func() time.Time
	newRunID  func() string
	timeout   time.Duration
	logger    zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithCounter sets the number store used for "auto" document numbers.
func WithCounter(c counter.Counter) Option {
	return func(g *Generator) { g.counter = c }
}

// WithRenderer sets the output renderer.
func WithRenderer(r render.Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithTemplateDir loads templates from <dir>/<kind>.html.
func WithTemplateDir(dir string) Option {
	return func(g *Generator) {
		g.templates = func(kind model.Kind) (string, error) {
			return binder.LoadTemplate(dir, kind)
		}
	}
}

// WithTemplateLoader sets a custom template source.
func WithTemplateLoader(load TemplateLoader) Option {
	return func(g *Generator) { g.templates = load }
}

// WithRecorder sets where finished generations are recorded.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithClock sets the time source for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRunID sets the generator of per-run identifiers.
func WithRunID(newID func() string) Option {
	return func(g *Generator) { g.newRunID = newID }
}

// WithRenderTimeout bounds each render. Zero or negative disables the bound.
func WithRenderTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		now:      time.Now,
		newRunID: uuid.NewString,
		timeout:  DefaultRenderTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request is one generation. Document, Customer and Freelancer are decoded
// JSON values as produced by input.ReadJSON.
type Request struct {
	Kind       model.Kind
	Document   any
	Customer   any // replaces the document's customer when non-nil
	Freelancer any

	// OutputPath is the file to write. When empty the file is
	// <OutputDir>/<kind>-<number><Ext>.
	OutputPath string
	OutputDir  string
	Ext        string // defaults to ".pdf"
}

// Result describes a successful generation.
type Result struct {
	RunID      string
	Kind       model.Kind
	Number     string
	OutputPath string
	Totals     totals.Totals
	Counter    ledger.CounterStatus
	// Unknown lists template placeholders that had no meaning and were blanked.
	Unknown []string
	// Warnings are problems that did not stop the output from being written.
	Warnings []string
}

// Generate runs the pipeline for req.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if _, err := model.ParseKind(string(req.Kind)); err != nil {
		return nil, err
	}
	if g.renderer == nil {
		return nil, errors.New("pipeline: no renderer configured")
	}
	if g.templates == nil {
		return nil, errors.New("pipeline: no template source configured")
	}

	res := &Result{RunID: g.newRunID(), Kind: req.Kind, Counter: ledger.StatusManual}
	log := g.logger.With().Str("run_id", res.RunID).Str("type", string(req.Kind)).Logger()

	// Validate
	data := req.Document
	if req.Customer != nil {
		data = input.WithCustomer(data, req.Customer)
	}
	doc, freelancer, err := decode(req.Kind, data, req.Freelancer)
	if err != nil {
		return nil, err
	}

	// Resolve number
	var reservation *counter.Reservation
	if doc.AutoNumbered() {
		if g.counter == nil {
			return nil, errors.New("pipeline: document number is \"auto\" but no counter is configured")
		}
		reservation, err = g.counter.Reserve(ctx, req.Kind)
		if err != nil {
			return nil, fmt.Errorf("reserving document number: %w", err)
		}
		defer reservation.Release()
		doc.Number = reservation.Number
		log.Debug().Str("number", doc.Number).Msg("number reserved")
	}
	res.Number = doc.Number
	log = log.With().Str("number", doc.Number).Logger()

	// Totals
	res.Totals = totals.Compute(doc.Items, doc.TaxRate, doc.TaxType)

	// Bind
	tpl, err := g.templates(req.Kind)
	if err != nil {
		return nil, err
	}
	bound := binder.Bind(tpl, binder.Input{Document: doc, Freelancer: freelancer, Totals: res.Totals})
	if len(bound.Unknown) > 0 {
		res.Unknown = bound.Unknown
		res.Warnings = append(res.Warnings, fmt.Sprintf("template has unknown placeholders: %s", strings.Join(bound.Unknown, ", ")))
		log.Warn().Strs("placeholders", bound.Unknown).Msg("unknown template placeholders left blank")
	}

	// Render
	res.OutputPath = req.OutputPath
	if res.OutputPath == "" {
		res.OutputPath = filepath.Join(req.OutputDir, OutputName(req.Kind, doc.Number, req.Ext))
	}
	if err := g.render(ctx, log, bound.Markup, res.OutputPath); err != nil {
		return nil, err
	}
	log.Info().Str("output", res.OutputPath).Msg("document rendered")

	// Commit
	if reservation != nil {
		if err := reservation.Commit(); err != nil {
			res.Counter = ledger.StatusCommitFailed
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"output written but the counter was not updated (%v); number %s may be issued again", err, doc.Number))
			log.Error().Err(err).Msg("counter commit failed after render")
		} else {
			res.Counter = ledger.StatusCommitted
		}
	}

	// Record
	if g.recorder != nil {
		entry := ledger.Entry{
			Timestamp: g.now(),
			RunID:     res.RunID,
			Kind:      string(req.Kind),
			Number:    doc.Number,
			IssueDate: doc.IssueDate,
			Customer:  doc.Customer.Name,
			Total:     res.Totals.Total.StringFixed(totals.Places),
			Output:    res.OutputPath,
			Counter:   res.Counter,
		}
		if err := g.recorder.Record(entry); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("ledger not updated: %v", err))
			log.Warn().Err(err).Msg("ledger append failed")
		}
	}

	return res, nil
}

// decode validates the document and the freelancer profile together, so
// every problem in both is reported at once, and converts them.
func decode(kind model.Kind, data, freelancerData any) (model.Document, model.Freelancer, error) {
	docErr := validate.Document(kind, data).Err(string(kind) + " data")
	freelancerErr := validate.Freelancer(freelancerData).Err("freelancer config")
	if err := errors.Join(docErr, freelancerErr); err != nil {
		return model.Document{}, model.Freelancer{}, err
	}

	doc, err := input.Document(kind, data)
	if err != nil {
		return model.Document{}, model.Freelancer{}, fmt.Errorf("decoding %s: %w", kind, err)
	}
	freelancer, err := input.Freelancer(freelancerData)
	if err != nil {
		return model.Document{}, model.Freelancer{}, fmt.Errorf("decoding freelancer config: %w", err)
	}
	return doc, freelancer, nil
}

// render runs the renderer under the render timeout. On failure an output
// file that did not exist before the render is removed.
func (g *Generator) render(ctx context.Context, log zerolog.Logger, markup, outPath string) error {
	rctx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	_, statErr := os.Stat(outPath)
	existed := !errors.Is(statErr, fs.ErrNotExist)

	err := g.renderer.Render(rctx, markup, outPath)
	if err == nil {
		return nil
	}

	if !existed {
		if rmErr := os.Remove(outPath); rmErr == nil {
			log.Debug().Str("output", outPath).Msg("removed partial output")
		} else if !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn().Err(rmErr).Str("output", outPath).Msg("could not remove partial output")
		}
	}

	if ctxErr := rctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	var renderErr *model.RenderError
	if !errors.As(err, &renderErr) {
		err = model.NewRenderError("render", err)
	}
	log.Error().Err(err).Msg("render failed")
	return err
}

// OutputName returns the default output file name for a document, such as
// invoice-INV-202406-0001.pdf. Path separators in the number are replaced.
func OutputName(kind model.Kind, number, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, number)
	return fmt.Sprintf("%s-%s%s", kind, safe, ext)
}
