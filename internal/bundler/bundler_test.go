package bundler

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/log"
	"github.com/packline-dev/packline/internal/manifest"
	"github.com/packline-dev/packline/internal/resolver"
)

func testLogger() *log.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBuildOneFileEntryPoint(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/index.js": "module.exports = require('./math') + 1;\n",
		"/proj/math.js":  "module.exports = 1;\n",
	})

	res, err := Build("/proj/index.js", Options{
		FS:             fs,
		Cwd:            "/proj",
		PackageManager: manifest.Npm,
		Workers:        2,
		Logger:         testLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, "/proj/index.js", res.EntryPath)

	entry, ok := res.Graph.Get("/proj/index.js")
	require.True(t, ok)
	resolved := entry.Deps["./math"]
	assert.Equal(t, resolver.KindNormal, resolved.Kind)
	assert.Equal(t, "/proj/math.js", resolved.Path)

	math, ok := res.Graph.Get("/proj/math.js")
	require.True(t, ok)
	assert.Equal(t, "module.exports = 1;\n", math.Source.Body)
}

func TestBuildMissingEntryIsError(t *testing.T) {
	fs := iofs.NewMock(map[string]string{})
	_, err := Build("./missing", Options{
		FS:             fs,
		Cwd:            "/proj",
		PackageManager: manifest.Npm,
		Workers:        1,
		Logger:         testLogger(),
	})
	assert.Error(t, err)
}

func TestBuildExternalDepIsNotIncluded(t *testing.T) {
	fs := iofs.NewMock(map[string]string{
		"/proj/index.js": "require('react');\n",
	})
	res, err := Build("/proj/index.js", Options{
		FS:             fs,
		Cwd:            "/proj",
		PackageManager: manifest.Npm,
		External:       []string{"react"},
		Workers:        1,
		Logger:         testLogger(),
	})
	require.NoError(t, err)
	assert.Len(t, res.Graph.Modules(), 1)
}
