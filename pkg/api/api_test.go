package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline-dev/packline/internal/iofs"
)

func TestBundleOneFileEntryPoint(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/index.js": "module.exports = require('./math') + 1;\n",
		"/proj/math.js":  "module.exports = 1;\n",
	})

	res, err := Bundle("/proj/index.js", Options{
		FS:      fs,
		Cwd:     "/proj",
		Workers: 2,
		MapMode: MapSuppressed,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Script, "Shim.files")
	assert.ElementsMatch(t, []string{"/proj/index.js", "/proj/math.js"}, res.Files)
	assert.Nil(t, res.MapJSON)
}

func TestBundleAllRunsIndependentEntriesConcurrently(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/a.js": "module.exports = 1;\n",
		"/proj/b.js": "module.exports = 2;\n",
	})

	results, err := BundleAll(context.Background(), []string{"/proj/a.js", "/proj/b.js"}, Options{
		FS:      fs,
		Cwd:     "/proj",
		Workers: 1,
		MapMode: MapSuppressed,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/proj/a.js", results[0].EntryPath)
	assert.Equal(t, "/proj/b.js", results[1].EntryPath)
}

func TestBundleAllReturnsFirstError(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/a.js": "module.exports = 1;\n",
	})

	_, err := BundleAll(context.Background(), []string{"/proj/a.js", "/proj/missing.js"}, Options{
		FS:      fs,
		Cwd:     "/proj",
		Workers: 1,
		MapMode: MapSuppressed,
	})
	assert.Error(t, err)
}
