package resolver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/manifest"
)

func TestResolveDirectoryIndex(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/fixtures/resolve/dir-js/index.js": "module.exports = 1",
	})
	r := New(fs, manifest.Npm, nil)

	resolved, err := r.Resolve("/fixtures/resolve/hypothetical.js", "./dir-js")
	require.NoError(t, err)
	assert.Equal(t, KindNormal, resolved.Kind)
	assert.Equal(t, "/fixtures/resolve/dir-js/index.js", resolved.Path)
}

func TestResolveClosestNodeModulesWins(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/fixtures/resolve/node_modules/shadowed/index.js":        "far",
		"/fixtures/resolve/subdir/node_modules/shadowed/index.js": "near",
	})
	r := New(fs, manifest.Npm, nil)

	resolved, err := r.Resolve("/fixtures/resolve/subdir/hypothetical.js", "shadowed")
	require.NoError(t, err)
	assert.Equal(t, "/fixtures/resolve/subdir/node_modules/shadowed/index.js", resolved.Path)
}

func TestResolveCandidateOrdering(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/p/a":                 "exact",
		"/p/a.mjs":              "mjs",
		"/p/a.js":               "js",
		"/p/a.json":             "json",
		"/p/a/index.mjs":        "idx-mjs",
		"/p/a/index.js":         "idx-js",
		"/p/a/index.json":       "idx-json",
	})
	r := New(fs, manifest.Npm, nil)
	resolved, err := r.Resolve("/p/context.js", "./a")
	require.NoError(t, err)
	assert.Equal(t, "/p/a", resolved.Path)
}

func TestResolveExternal(t *testing.T) {
	fs := iofs.NewMock(map[string]string{})
	r := New(fs, manifest.Npm, []string{"react"})
	resolved, err := r.Resolve("/p/a.js", "react")
	require.NoError(t, err)
	assert.Equal(t, KindExternal, resolved.Kind)
}

func TestResolveEmptySpecIsError(t *testing.T) {
	fs := iofs.NewMock(map[string]string{})
	r := New(fs, manifest.Npm, nil)
	_, err := r.Resolve("/p/a.js", "")
	require.Error(t, err)
}

func TestResolveManifestMain(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/p/node_modules/dep/package.json": `{"main": "./lib/entry.js"}`,
		"/p/node_modules/dep/lib/entry.js": "module.exports = {}",
	})
	r := New(fs, manifest.Npm, nil)
	resolved, err := r.Resolve("/p/a.js", "dep")
	require.NoError(t, err)
	assert.Equal(t, "/p/node_modules/dep/lib/entry.js", resolved.Path)
}

func TestResolveBrowserFieldBareString(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/p/node_modules/dep/package.json": `{"browser": "simple"}`,
		"/p/node_modules/dep/simple.js":    "module.exports = 1",
	})
	r := New(fs, manifest.Npm, nil)
	resolved, err := r.Resolve("/p/a.js", "dep")
	require.NoError(t, err)
	assert.Equal(t, KindNormal, resolved.Kind)
	assert.True(t, filepath.IsAbs(resolved.Path), "a bare-string browser substitution must rebase to an absolute path")
	assert.Equal(t, "/p/node_modules/dep/simple", resolved.Path)
}

func TestResolveMainNotFound(t *testing.T) {
	fs := iofs.NewMock(map[string]string{})
	r := New(fs, manifest.Npm, nil)
	_, err := r.ResolveMain("/p", "./missing")
	require.Error(t, err)
}
