package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendResolving(t *testing.T) {
	assert.Equal(t, "/a/b/c", AppendResolving("/a/b", "c"))
	assert.Equal(t, "/a/c", AppendResolving("/a/b", "../c"))
	assert.Equal(t, "/a/b", AppendResolving("/a/b", "."))
	assert.Equal(t, "/a/b/c/d", AppendResolving("/a/b", "./c/d"))
	assert.Equal(t, "/c", AppendResolving("/a/b", "../../c"))
}

func TestIsExplicitlyRelative(t *testing.T) {
	assert.True(t, IsExplicitlyRelative("./foo"))
	assert.True(t, IsExplicitlyRelative("../foo"))
	assert.False(t, IsExplicitlyRelative("foo"))
	assert.False(t, IsExplicitlyRelative("foo/../bar"))
}

func TestRelativeFrom(t *testing.T) {
	rel, ok := RelativeFrom("/a/b/c.js", "/a/d")
	assert.True(t, ok)
	assert.Equal(t, "../b/c.js", rel)

	rel, ok = RelativeFrom("/a/b.js", "/a")
	assert.True(t, ok)
	assert.Equal(t, "b.js", rel)

	rel, ok = RelativeFrom("/a/b.js", "/a/b.js")
	assert.True(t, ok)
	_ = rel

	_, ok = RelativeFrom("a/b.js", "/a")
	assert.False(t, ok)

	rel, ok = RelativeFrom("/a/b.js", "x/y")
	assert.True(t, ok)
	assert.Equal(t, "/a/b.js", rel)
}

func TestNeedsDir(t *testing.T) {
	assert.True(t, NeedsDir("./foo/"))
	assert.True(t, NeedsDir("./foo/."))
	assert.True(t, NeedsDir("./foo/.."))
	assert.False(t, NeedsDir("./foo"))
}

func TestHeadSegment(t *testing.T) {
	assert.Equal(t, "foo", HeadSegment("foo/bar"))
	assert.Equal(t, "@scope", HeadSegment("@scope/pkg/lib"))
	assert.Equal(t, "foo", HeadSegment("foo"))
}
