package pkgcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/manifest"
)

func TestPackageInfoMemoized(t *testing.T) {
	reads := 0
	fs := iofs.NewMock(map[string]string{
		"/pkg/package.json": `{"main": "./lib.js"}`,
	})
	c := New(countingFS{fs, &reads}, manifest.Npm)

	info := c.PackageInfo("/pkg")
	require.NotNil(t, info)
	assert.Equal(t, "/pkg/lib.js", info.Main)

	c.PackageInfo("/pkg")
	assert.Equal(t, 1, reads, "second lookup of the same directory must not re-read disk")
}

func TestPackageInfoMissingIsSticky(t *testing.T) {
	fs := iofs.NewMock(map[string]string{})
	c := New(fs, manifest.Npm)

	assert.Nil(t, c.PackageInfo("/nowhere"))
	assert.True(t, c.looked["/nowhere"])
	assert.Nil(t, c.PackageInfo("/nowhere"))
}

func TestNearestSkipsComponentStore(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/package.json": `{"main": "./index.js"}`,
	})
	c := New(fs, manifest.Npm)

	info := c.Nearest("/proj/node_modules/dep/lib")
	require.NotNil(t, info)
	assert.Equal(t, "/proj/index.js", info.Main)
}

func TestNearestBowerTriesBothFilenames(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/bower.json": `{"main": "./index.js"}`,
	})
	c := New(fs, manifest.Bower)

	info := c.Nearest("/proj/sub")
	require.NotNil(t, info)
	assert.Equal(t, "/proj/index.js", info.Main)
}

type countingFS struct {
	iofs.FS
	n *int
}

func (c countingFS) ReadFile(path string) ([]byte, bool) {
	*c.n++
	return c.FS.ReadFile(path)
}
