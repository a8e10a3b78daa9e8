package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacioli-dev/pacioli/internal/model"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Numbering.Invoice = "BILL"
	cfg.Render.ChromePath = "/usr/bin/chromium"
	cfg.Render.Timeout = 90 * time.Second

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "templates", cfg.Paths.Templates)
	assert.Equal(t, "output", cfg.Paths.Output)
	assert.Equal(t, ".metadata.json", cfg.Paths.Counter)
	assert.Equal(t, "config/freelancer.json", cfg.Paths.Freelancer)
	assert.Equal(t, "logs/ledger.csv", cfg.Paths.Ledger)
	assert.Equal(t, 60*time.Second, cfg.Render.Timeout)
	assert.Equal(t, map[model.Kind]string{
		model.KindInvoice:   "INV",
		model.KindQuotation: "QT",
		model.KindReceipt:   "REC",
	}, cfg.Prefixes())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("render:\n  timeout: 5s\nnumbering:\n  invoice_prefix: BILL\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Render.Timeout)
	assert.Equal(t, "BILL", cfg.Numbering.Invoice)
	assert.Equal(t, "QT", cfg.Numbering.Quotation)
	assert.Equal(t, "templates", cfg.Paths.Templates)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("render: [\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "templates: templates")
	assert.Contains(t, contents, "counter: .metadata.json")
	assert.Contains(t, contents, "invoice_prefix: INV")
	assert.Contains(t, contents, "timeout: 1m0s")
	assert.NotContains(t, contents, "chrome_path")
}

func TestLoadProject(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadProject(root, env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadProject(root, env(map[string]string{
		EnvChromePath:    "/opt/chrome",
		EnvRenderTimeout: "15s",
		EnvNoSandbox:     "true",
		EnvLogLevel:      "debug",
		EnvLogFormat:     "json",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/opt/chrome", cfg.Render.ChromePath)
	assert.Equal(t, 15*time.Second, cfg.Render.Timeout)
	assert.True(t, cfg.Render.NoSandbox)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadProject_BadEnv(t *testing.T) {
	_, err := LoadProject(t.TempDir(), env(map[string]string{EnvRenderTimeout: "soon"}))
	assert.ErrorContains(t, err, EnvRenderTimeout)

	_, err = LoadProject(t.TempDir(), env(map[string]string{EnvNoSandbox: "maybe"}))
	assert.ErrorContains(t, err, EnvNoSandbox)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", "templates"), Resolve("/proj", "templates"))
	assert.Equal(t, "/abs/out", Resolve("/proj", "/abs/out"))
}
