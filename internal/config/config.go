package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// FileName is the project configuration file at the project root.
const FileName = "pacioli.yaml"

// Environment variables that override the file.
const (
	EnvChromePath    = "PACIOLI_CHROME_PATH"
	EnvRenderTimeout = "PACIOLI_RENDER_TIMEOUT"
	EnvNoSandbox     = "PACIOLI_NO_SANDBOX"
	EnvLogLevel      = "PACIOLI_LOG_LEVEL"
	EnvLogFormat     = "PACIOLI_LOG_FORMAT"
)

// Config represents the top-level pacioli.yaml configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Numbering NumberingConfig `yaml:"numbering"`
	Render    RenderConfig    `yaml:"render"`
	Log       LogConfig       `yaml:"log"`
}

// PathsConfig locates project files. Relative paths are resolved against the
// project root.
type PathsConfig struct {
	Templates  string `yaml:"templates"`
	Output     string `yaml:"output"`
	Counter    string `yaml:"counter"`
	Freelancer string `yaml:"freelancer"`
	Ledger     string `yaml:"ledger"`
}

// NumberingConfig sets the prefixes written into a new counter state.
type NumberingConfig struct {
	Invoice   string `yaml:"invoice_prefix"`
	Quotation string `yaml:"quotation_prefix"`
	Receipt   string `yaml:"receipt_prefix"`
}

// RenderConfig controls the PDF renderer.
type RenderConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	ChromePath string        `yaml:"chrome_path,omitempty"`
	NoSandbox  bool          `yaml:"no_sandbox"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a pacioli.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Templates:  "templates",
			Output:     "output",
			Counter:    ".metadata.json",
			Freelancer: "config/freelancer.json",
			Ledger:     "logs/ledger.csv",
		},
		Numbering: NumberingConfig{
			Invoice:   "INV",
			Quotation: "QT",
			Receipt:   "REC",
		},
		Render: RenderConfig{
			Timeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadProject loads <root>/pacioli.yaml, or defaults when the file does not
// exist, then applies environment overrides from getenv.
func LoadProject(root string, getenv func(string) string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. Unset or empty
// variables leave the setting alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvChromePath); v != "" {
		c.Render.ChromePath = v
	}
	if v := getenv(EnvRenderTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRenderTimeout, err)
		}
		c.Render.Timeout = d
	}
	if v := getenv(EnvNoSandbox); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvNoSandbox, err)
		}
		c.Render.NoSandbox = b
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Prefixes returns the configured number prefix per kind.
func (c *Config) Prefixes() map[model.Kind]string {
	return map[model.Kind]string{
		model.KindInvoice:   c.Numbering.Invoice,
		model.KindQuotation: c.Numbering.Quotation,
		model.KindReceipt:   c.Numbering.Receipt,
	}
}

// Resolve returns p joined to root unless p is absolute.
func Resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// fillDefaults sets every empty field to its default.
func (c *Config) fillDefaults() {
	def := Default()
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	set(&c.Paths.Templates, def.Paths.Templates)
	set(&c.Paths.Output, def.Paths.Output)
	set(&c.Paths.Counter, def.Paths.Counter)
	set(&c.Paths.Freelancer, def.Paths.Freelancer)
	set(&c.Paths.Ledger, def.Paths.Ledger)
	set(&c.Numbering.Invoice, def.Numbering.Invoice)
	set(&c.Numbering.Quotation, def.Numbering.Quotation)
	set(&c.Numbering.Receipt, def.Numbering.Receipt)
	set(&c.Log.Level, def.Log.Level)
	set(&c.Log.Format, def.Log.Format)
	if c.Render.Timeout <= 0 {
		c.Render.Timeout = def.Render.Timeout
	}
}
