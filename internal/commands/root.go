package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pacioli-dev/pacioli/internal/buildinfo"
	"github.com/pacioli-dev/pacioli/internal/config"
	"github.com/pacioli-dev/pacioli/internal/logging"
)

// app is the state shared by all subcommands, filled in before any of them run.
type app struct {
	projectDir string
	logLevel   string
	logFormat  string

	root string // absolute project directory
	cfg  *config.Config
}

// path resolves a configured project path.
func (a *app) path(p string) string {
	return config.Resolve(a.root, p)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "pacioli",
		Short:   "Generate invoices, quotations and receipts from JSON",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.projectDir, "project", "C", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: console or json (default from config)")

	rootCmd.AddCommand(newInitCommand(a))
	rootCmd.AddCommand(newGenerateCommand(a))
	rootCmd.AddCommand(newNextCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))

	return rootCmd
}

// setup loads the project configuration and configures logging. Flags win
// over environment variables, which win over pacioli.yaml.
func (a *app) setup(cmd *cobra.Command) error {
	root, err := filepath.Abs(a.projectDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	a.root = root

	cfg, err := config.LoadProject(root, os.Getenv)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	return logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}
