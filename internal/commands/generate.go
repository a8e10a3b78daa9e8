package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pacioli-dev/pacioli/internal/counter"
	"github.com/pacioli-dev/pacioli/internal/input"
	"github.com/pacioli-dev/pacioli/internal/ledger"
	"github.com/pacioli-dev/pacioli/internal/logging"
	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/pipeline"
	"github.com/pacioli-dev/pacioli/internal/render"
)

type generateFlags struct {
	customer   string
	output     string
	freelancer string
	timeout    time.Duration
	format     string
}

func newGenerateCommand(a *app) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate <type> <input-json>",
		Short: "Generate a document from JSON input",
		Long: `Generate an invoice, quotation or receipt.

Set "documentNumber": "auto" in the input to take the next number from the
project counter (for example INV-202406-0001); any other value is used as is.`,
		Example: `  pacioli generate invoice examples/invoice.json --customer customers/acme-corp.json
  pacioli generate receipt data/rec.json --customer customers/acme-corp.json --output out/rec.pdf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			return runGenerate(cmd, a, kind, args[1], f)
		},
	}

	cmd.Flags().StringVar(&f.customer, "customer", "", "customer JSON file (required)")
	_ = cmd.MarkFlagRequired("customer")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default <output dir>/<type>-<number>.pdf)")
	cmd.Flags().StringVar(&f.freelancer, "config", "", "freelancer profile JSON (default from pacioli.yaml)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "render timeout (default from pacioli.yaml)")
	cmd.Flags().StringVar(&f.format, "format", "pdf", "output format: pdf or html")

	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, kind model.Kind, inputPath string, f generateFlags) error {
	logger := logging.WithComponent("generate")

	renderer, ext, err := a.renderer(f.format)
	if err != nil {
		return err
	}

	freelancerPath := f.freelancer
	if freelancerPath == "" {
		freelancerPath = a.path(a.cfg.Paths.Freelancer)
	}

	// Every input must be readable before anything else happens.
	doc, err := input.ReadJSON(inputPath)
	if err != nil {
		return err
	}
	customer, err := input.ReadJSON(f.customer)
	if err != nil {
		return err
	}
	freelancer, err := input.ReadJSON(freelancerPath)
	if err != nil {
		return err
	}

	timeout := a.cfg.Render.Timeout
	if f.timeout > 0 {
		timeout = f.timeout
	}

	gen := pipeline.New(
		pipeline.WithCounter(counter.NewFileStore(a.path(a.cfg.Paths.Counter))),
		pipeline.WithRenderer(renderer),
		pipeline.WithTemplateDir(a.path(a.cfg.Paths.Templates)),
		pipeline.WithRecorder(ledger.File{Path: a.path(a.cfg.Paths.Ledger)}),
		pipeline.WithRenderTimeout(timeout),
		pipeline.WithLogger(logger),
	)

	res, err := gen.Generate(cmd.Context(), pipeline.Request{
		Kind:       kind,
		Document:   doc,
		Customer:   customer,
		Freelancer: freelancer,
		OutputPath: f.output,
		OutputDir:  a.path(a.cfg.Paths.Output),
		Ext:        ext,
	})
	if err != nil {
		return err
	}

	printWarnings(cmd.ErrOrStderr(), res.Warnings)
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %s %s: %s\n", res.Kind, res.Number, res.OutputPath)
	return nil
}

// renderer returns the renderer and file extension for an output format.
func (a *app) renderer(format string) (render.Renderer, string, error) {
	switch format {
	case "pdf":
		return render.NewChrome(
			render.WithExecPath(a.cfg.Render.ChromePath),
			render.WithNoSandbox(a.cfg.Render.NoSandbox),
			render.WithLogger(logging.WithComponent("render")),
		), ".pdf", nil
	case "html":
		return render.HTMLFile{}, ".html", nil
	default:
		return nil, "", fmt.Errorf("unknown format %q (valid: pdf, html)", format)
	}
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", msg)
	}
}
