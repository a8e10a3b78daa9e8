package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacioli-dev/pacioli/internal/model"
)

func TestHTMLFile_Render(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output", "invoice-INV-202406-0001.html")
	require.NoError(t, HTMLFile{}.Render(context.Background(), "<p>5,000.00</p>", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<p>5,000.00</p>", string(data))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestHTMLFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "x.html")
	err := HTMLFile{}.Render(ctx, "<p></p>", out)

	var renderErr *model.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}

func TestHTMLFile_Overwrites(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.html")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))
	require.NoError(t, HTMLFile{}.Render(context.Background(), "new", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFunc(t *testing.T) {
	var got string
	var r Renderer = Func(func(_ context.Context, markup, _ string) error {
		got = markup
		return nil
	})
	require.NoError(t, r.Render(context.Background(), "<html></html>", "ignored"))
	assert.Equal(t, "<html></html>", got)
}

func TestVerifyPDF_RejectsNonPDF(t *testing.T) {
	_, err := verifyPDF(nil)
	assert.Error(t, err)

	_, err = verifyPDF([]byte("<html>not a pdf</html>"))
	assert.Error(t, err)
}

func TestNewChrome_Options(t *testing.T) {
	c := NewChrome(WithExecPath("/usr/bin/chromium"), WithNoSandbox(true))
	assert.Equal(t, "/usr/bin/chromium", c.execPath)
	assert.True(t, c.noSandbox)
}
