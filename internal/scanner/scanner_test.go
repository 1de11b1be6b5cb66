package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

func TestIncludeJSON(t *testing.T) {
	info, err := Include("pkg.json", `{"a":1}`, false)
	require.NoError(t, err)
	assert.Equal(t, "module.exports =\n", info.Source.Prefix)
	assert.Equal(t, `{"a":1}`, info.Source.Body)
	assert.Nil(t, info.Source.Original)
	assert.Empty(t, info.Deps)
}

func TestIncludePlainRequireHarvest(t *testing.T) {
	src := "const dep = require('./math');\nmodule.exports = dep;\n"
	info, err := Include("index.js", src, false)
	require.NoError(t, err)
	assert.True(t, info.Deps["./math"])
	assert.Equal(t, src, info.Source.Body)
	assert.Nil(t, info.Source.Original)
}

func TestIncludeESMPreservesLineCount(t *testing.T) {
	src := "import x from 'dep';\nexport const y = x + 1;\n"
	info, err := Include("index.mjs", src, false)
	require.NoError(t, err)
	require.NotNil(t, info.Source.Original)
	assert.Equal(t, src, *info.Source.Original)
	assert.Equal(t, lineCount(src), lineCount(info.Source.Body))
	assert.True(t, info.Deps["dep"])
}

func TestIncludeESMEverywhereAlsoHarvestsRequire(t *testing.T) {
	src := "import x from 'dep';\nconst y = require('./helper');\nexport default x;\n"
	info, err := Include("index.js", src, true)
	require.NoError(t, err)
	assert.True(t, info.Deps["dep"])
	assert.True(t, info.Deps["./helper"])
	assert.Equal(t, lineCount(src), lineCount(info.Source.Body))
}

func TestIncludeNonESMFlagLeavesImportUntouched(t *testing.T) {
	src := "import x from 'dep';\nconst y = require('./helper');\n"
	info, err := Include("index.js", src, false)
	require.NoError(t, err)
	assert.True(t, info.Deps["./helper"])
	assert.Equal(t, src, info.Source.Body)
	assert.Nil(t, info.Source.Original)
}

func TestHashbangRewrittenOnce(t *testing.T) {
	src := "#!/usr/bin/env node\nmodule.exports = 1;\n"
	info, err := Include("cli.js", src, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Source.Body, "//!/usr/bin/env node\n"))
	require.NotNil(t, info.Source.Original)
	assert.Equal(t, src, *info.Source.Original)
}

func TestRewriteNamedExportList(t *testing.T) {
	src := "const va = 1, vb = 2;\nexport { va as vaz, vb };\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	require.Len(t, r.Deps, 0)
	assert.Equal(t, lineCount(src), lineCount(r.Body))
	assert.Contains(t, r.Prefix, "vaz: {get: function () { return va; }")
	assert.Contains(t, r.Prefix, "vb: {get: function () { return vb; }")
}

func TestRewriteExportAllFrom(t *testing.T) {
	src := "export * from 'a_module';\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.True(t, r.Deps["a_module"])
	assert.Contains(t, r.Prefix, "getOwnPropertyDescriptors(require._esModule(\"a_module\"))")
	assert.Equal(t, lineCount(src), lineCount(r.Body))
}

func TestRewriteExportNamedFrom(t *testing.T) {
	src := "export { a as b } from 'mod';\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.True(t, r.Deps["mod"])
	assert.Contains(t, r.Prefix, "__reexport0")
	assert.Contains(t, r.Prefix, "b: {get: function () { return __reexport0.a; }")
}

func TestRewriteImportDefaultAndNamed(t *testing.T) {
	src := "import def, { a as b, c } from 'dep';\nconsole.log(def, b, c);\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.True(t, r.Deps["dep"])
	assert.Equal(t, lineCount(src), lineCount(r.Body))
	assert.Contains(t, r.Prefix, "require._esModule(\"dep\")")
	assert.Contains(t, r.Body, "def")
	assert.Contains(t, r.Body, "console.log")
}

func TestRewriteImportNamespace(t *testing.T) {
	src := "import * as ns from 'dep';\nns.thing();\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.True(t, r.Deps["dep"])
	assert.Contains(t, r.Prefix, "ns: {value: __module0, enumerable: true}")
}

func TestRewriteImportMeta(t *testing.T) {
	src := "const u = import.meta.url;\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "__import_meta.url")
	assert.Empty(t, r.Deps)
}

func TestRewriteExportDefaultExpression(t *testing.T) {
	src := "export default 42;\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "const __default = 42")
	assert.Contains(t, r.Prefix, "default: {get: function () { return __default; }")
}

func TestRewriteExportDefaultFunction(t *testing.T) {
	src := "export default function named() {}\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "function named() {}")
	assert.Contains(t, r.Prefix, "default: {get: function () { return named; }")
}

func TestRewriteExportDefaultAsyncFunction(t *testing.T) {
	src := "export default async function named() {}\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "async function named() {}")
}

func TestRewriteExportDefaultAsyncNotFollowedByFunction(t *testing.T) {
	src := "export default async\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "const __default = ")
	assert.Contains(t, r.Body, "async")
}

func TestRewriteTopLevelAsyncFunctionRejectsNewline(t *testing.T) {
	_, err := rewrite("m.mjs", "export async\nfunction broken() {}\n", false)
	require.Error(t, err)
}

func TestRewriteVarExportKeepsDeclaration(t *testing.T) {
	src := "export var a = 1, b = [1, 2], c;\n"
	r, err := rewrite("m.mjs", src, false)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "var a = 1, b = [1, 2], c;")
	assert.Contains(t, r.Prefix, "a: {get: function () { return a; }")
	assert.Contains(t, r.Prefix, "b: {get: function () { return b; }")
	assert.Contains(t, r.Prefix, "c: {get: function () { return c; }")
}
