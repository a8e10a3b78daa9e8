// Package scaffold creates a new project directory: templates, example
// inputs, a freelancer profile skeleton, the counter state and pacioli.yaml.
package scaffold

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pacioli-dev/pacioli/internal/config"
	"github.com/pacioli-dev/pacioli/internal/counter"
)

//go:embed assets
var assets embed.FS

const assetRoot = "assets"

// ErrNotEmpty is returned when the target directory already has visible
// files and Force is not set.
var ErrNotEmpty = errors.New("directory is not empty (use --force to scaffold anyway)")

// renamed maps asset names that cannot be embedded under their real name.
var renamed = map[string]string{
	"gitignore": ".gitignore",
}

// Options controls Init.
type Options struct {
	// Force scaffolds into a non-empty directory and overwrites existing files.
	Force bool
	// Now sets the numbering period of the new counter state.
	Now time.Time
	// Config is written as pacioli.yaml. Defaults to config.Default().
	Config *config.Config
}

// Report lists what Init did, as paths relative to the project directory.
type Report struct {
	Created []string
	Skipped []string
}

// Init scaffolds a project in dir, creating dir if needed. Existing files are
// skipped unless opts.Force is set. The counter state is written under the
// counter lock, so a forced re-init waits for a running generation.
func Init(ctx context.Context, dir string, opts Options) (*Report, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	if !opts.Force {
		empty, err := isEmpty(dir)
		if err != nil {
			return nil, err
		}
		if !empty {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotEmpty)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project dir: %w", err)
	}

	s := &scaffolder{root: dir, templates: opts.Config.Paths.Templates, force: opts.Force, report: &Report{}}

	if err := s.copyAssets(); err != nil {
		return nil, err
	}
	if err := s.file(filepath.Join(opts.Config.Paths.Output, ".gitkeep"), func(p string) error {
		return os.WriteFile(p, nil, 0o644)
	}); err != nil {
		return nil, err
	}
	if err := s.file(opts.Config.Paths.Counter, func(p string) error {
		return counter.NewFileStore(p).Reset(ctx, counter.NewState(opts.Now, opts.Config.Prefixes()))
	}); err != nil {
		return nil, err
	}
	if err := s.file(config.FileName, func(p string) error {
		return config.Save(p, opts.Config)
	}); err != nil {
		return nil, err
	}
	return s.report, nil
}

type scaffolder struct {
	root      string
	templates string
	force     bool
	report    *Report
}

// file creates rel with write unless it exists and force is off.
func (s *scaffolder) file(rel string, write func(path string) error) error {
	p := config.Resolve(s.root, rel)
	if _, err := os.Stat(p); err == nil && !s.force {
		s.report.Skipped = append(s.report.Skipped, rel)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating dir for %s: %w", rel, err)
	}
	if err := write(p); err != nil {
		return fmt.Errorf("creating %s: %w", rel, err)
	}
	s.report.Created = append(s.report.Created, rel)
	return nil
}

func (s *scaffolder) copyAssets() error {
	return fs.WalkDir(assets, assetRoot, func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(name, assetRoot+"/")
		dir, base := path.Split(rel)
		if actual, ok := renamed[base]; ok {
			rel = dir + actual
		}
		target := filepath.FromSlash(rel)
		if dir == "templates/" {
			target = filepath.Join(s.templates, base)
		}
		return s.file(target, func(p string) error {
			data, err := assets.ReadFile(name)
			if err != nil {
				return err
			}
			return os.WriteFile(p, data, 0o644)
		})
	})
}

// isEmpty reports whether dir is missing or holds only dot-files.
func isEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading project dir: %w", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			return false, nil
		}
	}
	return true, nil
}
