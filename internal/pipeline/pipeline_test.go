package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacioli-dev/pacioli/internal/counter"
	"github.com/pacioli-dev/pacioli/internal/input"
	"github.com/pacioli-dev/pacioli/internal/ledger"
	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/render"
)

const template = `<h1>{{documentNumber}}</h1><p>{{customer.name}}</p>` +
	`<table>{{items}}</table><p>{{subtotal}} {{taxAmount}} {{total}}</p>`

const invoiceJSON = `{
  "documentNumber": "auto",
  "issueDate": "2024-06-15",
  "dueDate": "2024-07-15",
  "customer": {"name": "Acme Corp", "phone": "02-123-4567"},
  "items": [{"description": "Design work", "quantity": 10, "unit": "hr", "unitPrice": 500}],
  "taxRate": 0.03,
  "taxType": "withholding",
  "taxLabel": "หัก ณ ที่จ่าย 3%"
}`

const freelancerJSON = `{
  "name": "Somchai Jaidee", "email": "somchai@example.com", "phone": "081-234-5678",
  "address": "Bangkok",
  "bankInfo": {"bankName": "Kasikorn Bank", "accountName": "Somchai Jaidee", "accountNumber": "123-4-56789-0"}
}`

var june2024 = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	v, err := input.DecodeJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func stateAt(lastInvoice int) *counter.State {
	st := counter.NewState(june2024, nil)
	st.Invoice.LastNumber = lastInvoice
	return st
}

func newMemory(lastInvoice int) *counter.Memory {
	return counter.NewMemory(stateAt(lastInvoice), counter.WithClock(func() time.Time { return june2024 }))
}

// recordingRenderer writes markup to the output path and remembers it.
type recordingRenderer struct {
	calls  atomic.Int32
	markup string
}

func (r *recordingRenderer) Render(_ context.Context, markup, outPath string) error {
	r.calls.Add(1)
	r.markup = markup
	return os.WriteFile(outPath, []byte(markup), 0o644)
}

type memoryLedger struct {
	entries []ledger.Entry
	err     error
}

func (l *memoryLedger) Record(e ledger.Entry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, e)
	return nil
}

func staticTemplate(tpl string) TemplateLoader {
	return func(model.Kind) (string, error) { return tpl, nil }
}

func newGenerator(opts ...Option) *Generator {
	base := []Option{
		WithTemplateLoader(staticTemplate(template)),
		WithClock(func() time.Time { return june2024 }),
		WithRunID(func() string { return "run-1" }),
	}
	return New(append(base, opts...)...)
}

func invoiceRequest(t *testing.T) Request {
	return Request{
		Kind:       model.KindInvoice,
		Document:   decodeJSON(t, invoiceJSON),
		Freelancer: decodeJSON(t, freelancerJSON),
		OutputDir:  t.TempDir(),
	}
}

func TestGenerate_AutoNumber(t *testing.T) {
	mem := newMemory(4)
	rend := &recordingRenderer{}
	led := &memoryLedger{}
	g := newGenerator(WithCounter(mem), WithRenderer(rend), WithRecorder(led))

	req := invoiceRequest(t)
	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "INV-202406-0005", res.Number)
	assert.Equal(t, filepath.Join(req.OutputDir, "invoice-INV-202406-0005.pdf"), res.OutputPath)
	assert.Equal(t, ledger.StatusCommitted, res.Counter)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "4850", res.Totals.Total.String())

	assert.FileExists(t, res.OutputPath)
	assert.Contains(t, rend.markup, "<h1>INV-202406-0005</h1>")
	assert.Contains(t, rend.markup, "5,000.00 (150.00) 4,850.00")
	assert.Equal(t, 5, mem.State().Invoice.LastNumber)

	require.Len(t, led.entries, 1)
	assert.Equal(t, ledger.Entry{
		Timestamp: june2024,
		RunID:     "run-1",
		Kind:      "invoice",
		Number:    "INV-202406-0005",
		IssueDate: "2024-06-15",
		Customer:  "Acme Corp",
		Total:     "4850.00",
		Output:    res.OutputPath,
		Counter:   ledger.StatusCommitted,
	}, led.entries[0])
}

func TestGenerate_ManualNumber(t *testing.T) {
	mem := newMemory(4)
	rend := &recordingRenderer{}
	g := newGenerator(WithCounter(mem), WithRenderer(rend))

	req := invoiceRequest(t)
	req.Document.(map[string]any)["documentNumber"] = "INV/2024/77"
	req.OutputPath = filepath.Join(req.OutputDir, "custom.pdf")

	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "INV/2024/77", res.Number)
	assert.Equal(t, req.OutputPath, res.OutputPath)
	assert.Equal(t, ledger.StatusManual, res.Counter)
	assert.Equal(t, 4, mem.State().Invoice.LastNumber)
}

func TestGenerate_ManualNumberNeedsNoCounter(t *testing.T) {
	g := newGenerator(WithRenderer(&recordingRenderer{}))
	req := invoiceRequest(t)
	req.Document.(map[string]any)["documentNumber"] = "INV-1"
	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), invoiceRequest(t))
	assert.ErrorContains(t, err, "no counter")
}

func TestGenerate_ValidationErrorsAccumulate(t *testing.T) {
	mem := newMemory(0)
	rend := &recordingRenderer{}
	g := newGenerator(WithCounter(mem), WithRenderer(rend))

	receipt := decodeJSON(t, `{
	  "documentNumber": "auto", "issueDate": "2024-06-15", "paymentDate": "2024-06-15",
	  "customer": {"name": "Acme", "phone": "1"},
	  "items": [{"description": "x", "quantity": 1, "unit": "job", "unitPrice": 1}],
	  "taxRate": 0, "taxType": "vat", "taxLabel": "VAT"
	}`)
	freelancer := decodeJSON(t, `{"name": "S"}`)

	_, err := g.Generate(context.Background(), Request{
		Kind: model.KindReceipt, Document: receipt, Freelancer: freelancer, OutputDir: t.TempDir(),
	})
	require.Error(t, err)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "receipt data", verr.Subject)
	assert.Equal(t, []string{"Payment method is required", "Valid paid amount is required"}, verr.Messages)
	assert.Contains(t, err.Error(), "Freelancer email is required")
	assert.Contains(t, err.Error(), "Bank information is required")

	assert.Zero(t, rend.calls.Load())
	assert.Equal(t, 0, mem.State().Receipt.LastNumber)
}

func TestGenerate_CustomerFileReplacesDocumentCustomer(t *testing.T) {
	rend := &recordingRenderer{}
	g := newGenerator(WithCounter(newMemory(0)), WithRenderer(rend))

	req := invoiceRequest(t)
	req.Customer = decodeJSON(t, `{"name": "Globex", "phone": "02-999"}`)
	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, rend.markup, "<p>Globex</p>")

	req = invoiceRequest(t)
	req.Customer = decodeJSON(t, `{"name": "Globex"}`)
	_, err = g.Generate(context.Background(), req)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Customer phone is required"}, verr.Messages)
}

func TestGenerate_RenderFailureReleasesNumber(t *testing.T) {
	mem := newMemory(4)
	led := &memoryLedger{}
	failing := render.Func(func(_ context.Context, _, outPath string) error {
		require.NoError(t, os.WriteFile(outPath, []byte("%PDF-partial"), 0o644))
		return errors.New("browser crashed")
	})
	g := newGenerator(WithCounter(mem), WithRenderer(failing), WithRecorder(led))

	req := invoiceRequest(t)
	_, err := g.Generate(context.Background(), req)

	var renderErr *model.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, err.Error(), "browser crashed")
	assert.NoFileExists(t, filepath.Join(req.OutputDir, "invoice-INV-202406-0005.pdf"))
	assert.Equal(t, 4, mem.State().Invoice.LastNumber)
	assert.Empty(t, led.entries)

	// The counter is free again and offers the same number.
	next, err := mem.Peek(context.Background(), model.KindInvoice)
	require.NoError(t, err)
	assert.Contains(t, next, "-0005")
}

func TestGenerate_RenderFailureKeepsPreexistingFile(t *testing.T) {
	g := newGenerator(WithRenderer(render.Func(func(context.Context, string, string) error {
		return errors.New("no browser")
	})))

	req := invoiceRequest(t)
	req.Document.(map[string]any)["documentNumber"] = "INV-1"
	req.OutputPath = filepath.Join(req.OutputDir, "existing.pdf")
	require.NoError(t, os.WriteFile(req.OutputPath, []byte("old"), 0o644))

	_, err := g.Generate(context.Background(), req)
	require.Error(t, err)
	assert.FileExists(t, req.OutputPath)
}

func TestGenerate_RenderTimeout(t *testing.T) {
	mem := newMemory(0)
	slow := render.Func(func(ctx context.Context, _, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g := newGenerator(WithCounter(mem), WithRenderer(slow), WithRenderTimeout(20*time.Millisecond))

	_, err := g.Generate(context.Background(), invoiceRequest(t))
	var renderErr *model.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, mem.State().Invoice.LastNumber)
}

func TestGenerate_CommitFailureIsAWarning(t *testing.T) {
	stateDir := t.TempDir()
	statePath := filepath.Join(stateDir, counter.DefaultFile)
	require.NoError(t, counter.Save(statePath, stateAt(4)))
	store := counter.NewFileStore(statePath, counter.WithClock(func() time.Time { return june2024 }))

	// The state directory disappears while the document renders, so the
	// commit cannot write the new state.
	rend := render.Func(func(_ context.Context, markup, outPath string) error {
		require.NoError(t, os.RemoveAll(stateDir))
		return os.WriteFile(outPath, []byte(markup), 0o644)
	})
	led := &memoryLedger{}
	g := newGenerator(WithCounter(store), WithRenderer(rend), WithRecorder(led))

	res, err := g.Generate(context.Background(), invoiceRequest(t))
	require.NoError(t, err)
	assert.FileExists(t, res.OutputPath)
	assert.Equal(t, ledger.StatusCommitFailed, res.Counter)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "INV-202406-0005 may be issued again")

	require.Len(t, led.entries, 1)
	assert.Equal(t, ledger.StatusCommitFailed, led.entries[0].Counter)
}

func TestGenerate_LedgerFailureIsAWarning(t *testing.T) {
	mem := newMemory(0)
	g := newGenerator(WithCounter(mem), WithRenderer(&recordingRenderer{}),
		WithRecorder(&memoryLedger{err: errors.New("disk full")}))

	res, err := g.Generate(context.Background(), invoiceRequest(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"ledger not updated: disk full"}, res.Warnings)
	assert.Equal(t, 1, mem.State().Invoice.LastNumber)
}

func TestGenerate_MissingTemplate(t *testing.T) {
	mem := newMemory(0)
	rend := &recordingRenderer{}
	g := New(WithCounter(mem), WithRenderer(rend), WithTemplateDir(t.TempDir()))

	_, err := g.Generate(context.Background(), invoiceRequest(t))
	var inErr *model.InputError
	require.ErrorAs(t, err, &inErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, rend.calls.Load())

	// The reservation was released.
	res, err := mem.Reserve(context.Background(), model.KindInvoice)
	require.NoError(t, err)
	res.Release()
}

func TestGenerate_UnknownPlaceholders(t *testing.T) {
	rend := &recordingRenderer{}
	g := newGenerator(WithCounter(newMemory(0)), WithRenderer(rend),
		WithTemplateLoader(staticTemplate("<p>{{total}}</p><img src=\"{{logo}}\">")))

	res, err := g.Generate(context.Background(), invoiceRequest(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"logo"}, res.Unknown)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "logo")
	assert.Equal(t, `<p>4,850.00</p><img src="">`, rend.markup)
}

func TestGenerate_UnknownKind(t *testing.T) {
	g := newGenerator(WithRenderer(&recordingRenderer{}))
	_, err := g.Generate(context.Background(), Request{Kind: "memo"})
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "invoice-INV-202406-0001.pdf", OutputName(model.KindInvoice, "INV-202406-0001", ""))
	assert.Equal(t, "receipt-REC_2024_1.html", OutputName(model.KindReceipt, "REC/2024/1", ".html"))
	assert.Equal(t, "quotation-.._x.pdf", OutputName(model.KindQuotation, `..\x`, ".pdf"))
}
