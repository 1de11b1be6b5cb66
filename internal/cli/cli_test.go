package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline-dev/packline/internal/writer"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestRunBuildToStdoutSuppressesMap(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.js": "module.exports = require('./math') + 1;\n",
		"math.js":  "module.exports = 1;\n",
	})

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), Options{
		Input:   filepath.Join(dir, "index.js"),
		Output:  "-",
		Cwd:     dir,
		ExeName: "packline",
		Workers: 2,
	}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Shim.files")
	assert.NotContains(t, stdout.String(), "sourceMappingURL")
	assert.Empty(t, stderr.String())
}

func TestRunBuildToFileWritesDefaultMap(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.js": "module.exports = 1;\n",
	})
	out := filepath.Join(dir, "out", "bundle.js")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), Options{
		Input:   filepath.Join(dir, "index.js"),
		Output:  out,
		Cwd:     dir,
		ExeName: "packline",
		Workers: 1,
	}, &stdout, &stderr)

	require.Equal(t, 0, code)
	script, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(script), "sourceMappingURL=bundle.js.map")

	_, err = os.Stat(out + ".map")
	assert.NoError(t, err)
}

func TestRunMissingEntryReturnsExitCodeOne(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), Options{
		Input:   filepath.Join(dir, "missing.js"),
		Output:  "-",
		Cwd:     dir,
		ExeName: "packline",
		Workers: 1,
	}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "packline:")
}

func TestResolveMapModeDefaults(t *testing.T) {
	mode, path, err := resolveMapMode(Options{Output: "-"})
	require.NoError(t, err)
	assert.Equal(t, writer.MapSuppressed, mode)
	assert.Empty(t, path)

	mode, path, err = resolveMapMode(Options{Output: "bundle.js"})
	require.NoError(t, err)
	assert.Equal(t, writer.MapFile, mode)
	assert.Equal(t, "bundle.js.map", path)
}

func TestResolveMapModeRejectsConflictingFlags(t *testing.T) {
	_, _, err := resolveMapMode(Options{Output: "bundle.js", MapInline: true, NoMap: true})
	assert.Error(t, err)
}
