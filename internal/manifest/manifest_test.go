package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrowserSimpleNpm(t *testing.T) {
	info, err := Parse("/pkg", Npm, []byte(`{"browser": "simple"}`))
	require.NoError(t, err)
	assert.Equal(t, "/pkg/index", info.Main)

	sub, ok := info.CheckPath("/pkg/index")
	require.True(t, ok)
	assert.Equal(t, Replace, sub.Kind)
	assert.Equal(t, "/pkg/simple", sub.Target)

	_, ok = info.CheckPath("/pkg")
	assert.False(t, ok, "npm manifests must not get the '.' (package directory) substitution")
}

func TestParseBrowserSimpleBower(t *testing.T) {
	info, err := Parse("/pkg", Bower, []byte(`{"browser": "simple"}`))
	require.NoError(t, err)

	// The "." key is rebased onto the package directory like every other
	// relative key.
	sub, ok := info.CheckPath("/pkg")
	require.True(t, ok)
	assert.Equal(t, Replace, sub.Kind)
	assert.Equal(t, "/pkg/simple", sub.Target)
}

func TestParseBrowserComplex(t *testing.T) {
	info, err := Parse("/pkg", Npm, []byte(`{
		"main": "./lib/main.js",
		"browser": {
			"./lib/main.js": "./lib/browser.js",
			"fs": false,
			"some-module": "other-module"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "/pkg/lib/main.js", info.Main)

	sub, ok := info.CheckPath("/pkg/lib/browser.js")
	assert.False(t, ok)

	sub, ok = info.CheckPath("/pkg/lib/main.js")
	require.True(t, ok)
	assert.Equal(t, "/pkg/lib/browser.js", sub.Target)

	sub, ok = info.CheckModuleName("fs")
	require.True(t, ok)
	assert.Equal(t, Ignore, sub.Kind)

	sub, ok = info.CheckModuleName("some-module")
	require.True(t, ok)
	assert.Equal(t, Replace, sub.Kind)
	assert.Equal(t, "other-module", sub.Target)
}

func TestDecodeMainBowerArray(t *testing.T) {
	info, err := Parse("/pkg", Bower, []byte(`{"main": ["styles.css", "dist/lib.js"]}`))
	require.NoError(t, err)
	assert.Equal(t, "/pkg/dist/lib.js", info.Main)
}

func TestDecodeMainDefault(t *testing.T) {
	info, err := Parse("/pkg", Npm, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "/pkg/index", info.Main)
}
