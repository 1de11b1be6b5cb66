// Package sourcemap assembles the version-3 source map document the
// writer emits alongside a bundle: a version-3 JSON document plus the
// VLQ-encoded "mappings" string, built incrementally one generated line
// at a time as the writer composes the bundle text.
package sourcemap

import (
	"encoding/json"

	"github.com/packline-dev/packline/internal/vlq"
)

// Map is the version-3 source map document described by the data
// model: sourceRoot and names are always empty here (this bundler
// never names a symbol, only a line), file is always empty (the
// sourceMappingURL comment, not this field, is what points a consumer
// at the bundle).
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// New builds the version-3 document for sources/sourcesContent already
// in writer emission order and a mappings string built with Builder.
func New(sources, sourcesContent []string, mappings string) *Map {
	return &Map{
		Version:        3,
		Sources:        sources,
		SourcesContent: sourcesContent,
		Names:          []string{},
		Mappings:       mappings,
	}
}

// Marshal renders m as the JSON document written to a .map file or
// embedded in a data-URI comment.
func (m *Map) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Builder accumulates the "mappings" field one generated line at a
// time. Every exported method appends exactly one line's worth of
// segments (possibly none) followed by a single ';', so a caller that
// invokes one of these methods for every line the writer emits, in
// order, satisfies §4.7's "exactly one ; per generated line" contract
// by construction.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Blank records a generated line with no corresponding source
// position: bundler-authored text such as the runtime prologue, a
// module's declaration line, a rewrite's prefix or suffix, the entry
// invocation, or the runtime tail.
func (b *Builder) Blank() {
	b.buf = append(b.buf, ';')
}

// FirstLine records line 0 of the very first module's body in the
// bundle: source 0, line 0, column 0, the mapping's anchor point.
func (b *Builder) FirstLine() {
	b.buf = append(b.buf, "AAAA;"...)
}

// ModuleStart records line 0 of every module's body after the first:
// advance the source index by one and reset the source line to 0 from
// prevLastLine, the 0-based index of the previous module's final body
// line.
func (b *Builder) ModuleStart(prevLastLine int) {
	b.buf = append(b.buf, "AC"...)
	b.buf = vlq.Encode(b.buf, -prevLastLine)
	b.buf = append(b.buf, "A;"...)
}

// Continue records a body line after a module's first line: same
// source, advance exactly one source line.
func (b *Builder) Continue() {
	b.buf = append(b.buf, "ACA;"...)
}

// Mappings returns the accumulated mappings string.
func (b *Builder) Mappings() string {
	return string(b.buf)
}
