package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pacioli-dev/pacioli/internal/config"
	"github.com/pacioli-dev/pacioli/internal/gitops"
	"github.com/pacioli-dev/pacioli/internal/scaffold"
)

func newInitCommand(a *app) *cobra.Command {
	var force, git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new Pacioli project",
		Long: `Initialize a new Pacioli project.

Creates templates/, examples/, customers/, config/freelancer.example.json,
output/, the auto-numbering state (.metadata.json) and pacioli.yaml.
The directory must be empty (dot-files aside) unless --force is given.
With --git the project is also put under git with an initial commit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.root
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, force, git)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "scaffold into a non-empty directory, overwriting existing files")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository and commit the scaffold")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, force, git bool) error {
	report, err := scaffold.Init(ctx, dir, scaffold.Options{
		Force:  force,
		Now:    time.Now(),
		Config: config.Default(),
	})
	if err != nil {
		return err
	}

	for _, rel := range report.Created {
		fmt.Fprintf(out, "  created %s\n", rel)
	}
	for _, rel := range report.Skipped {
		fmt.Fprintf(out, "  skipped %s (already exists)\n", rel)
	}

	if git {
		if err := commitScaffold(ctx, out, dir); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nInitialized Pacioli project at %s\n", dir)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. cp config/freelancer.example.json config/freelancer.json and fill in your details")
	fmt.Fprintln(out, "  2. pacioli generate invoice examples/invoice.json --customer customers/acme-corp.json")
	return nil
}

func commitScaffold(ctx context.Context, out io.Writer, dir string) error {
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
	}
	hash, err := gitops.CommitAll(ctx, dir, "Initialize Pacioli project", gitops.DefaultAuthor)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  committed %s\n", hash)
	return nil
}
