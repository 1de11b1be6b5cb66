// Package manifest parses package manifest JSON (package.json,
// bower.json, .bower.json) into the PackageInfo model: a resolved main
// entry point plus the decoded browser-field substitution map, with all
// relative paths rebased onto the package's directory.
package manifest

import (
	"encoding/json"
	"strings"

	"github.com/packline-dev/packline/internal/pathutil"
)

// PackageManager selects which component-store convention and manifest
// file name(s) apply.
type PackageManager int

const (
	Npm PackageManager = iota
	Bower
)

// Dir returns the component-store directory name for pm.
func (pm PackageManager) Dir() string {
	if pm == Bower {
		return "bower_components"
	}
	return "node_modules"
}

// CandidateNames returns the manifest file names to try, in order, for
// a directory using package manager pm. npm has exactly one; bower has
// two, since bower tooling has historically shipped both conventions.
func (pm PackageManager) CandidateNames() []string {
	if pm == Bower {
		return []string{".bower.json", "bower.json"}
	}
	return []string{"package.json"}
}

// SubstitutionKind distinguishes a browser-field substitution that hides
// a module (Ignore) from one that redirects it (Replace).
type SubstitutionKind int

const (
	Ignore SubstitutionKind = iota
	Replace
)

// Substitution is one entry of a browser-field substitution map.
type Substitution struct {
	Kind   SubstitutionKind
	Target string // valid only when Kind == Replace
}

// SubstitutionMap maps a path-or-bare-module-name to its substitution.
type SubstitutionMap map[string]Substitution

// Info is the resolved, rebased manifest model for one package
// directory: PackageInfo in the data model.
type Info struct {
	Dir                  string
	Main                 string // absolute path
	BrowserSubstitutions SubstitutionMap
}

// CheckPath looks up an absolute candidate path in info's browser
// substitution map, matching §4.3's check_path contract.
func (info *Info) CheckPath(absPath string) (Substitution, bool) {
	if info == nil {
		return Substitution{}, false
	}
	s, ok := info.BrowserSubstitutions[absPath]
	return s, ok
}

// CheckModuleName looks up a bare module head segment in info's browser
// substitution map.
func (info *Info) CheckModuleName(head string) (Substitution, bool) {
	return info.CheckPath(head)
}

type rawManifest struct {
	Main    json.RawMessage `json:"main"`
	Browser json.RawMessage `json:"browser"`
}

// Parse decodes the manifest JSON found in dir for package manager pm
// and returns a fully rebased Info.
func Parse(dir string, pm PackageManager, data []byte) (*Info, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	main := decodeMain(raw.Main, pm)
	if !pathutil.IsExplicitlyRelative(main) && !strings.HasPrefix(main, "/") {
		main = "./" + strings.TrimPrefix(main, "./")
	}
	absMain := pathutil.AppendResolving(dir, main)

	subs := decodeBrowserField(raw.Browser, absMain, pm)
	rebased := make(SubstitutionMap, len(subs))
	for key, sub := range subs {
		rebasedKey := key
		if pathutil.IsExplicitlyRelative(key) {
			rebasedKey = pathutil.AppendResolving(dir, key)
		}
		if sub.Kind == Replace && pathutil.IsExplicitlyRelative(sub.Target) {
			sub.Target = pathutil.AppendResolving(dir, sub.Target)
		}
		rebased[rebasedKey] = sub
	}

	return &Info{
		Dir:                  dir,
		Main:                 absMain,
		BrowserSubstitutions: rebased,
	}, nil
}

// decodeMain implements the manifest "main" default rule: missing or
// non-string -> "./index"; any string is used as-is, whatever its
// extension; for bower, main may be an array of strings, in which case
// the first entry ending in ".js" is picked (falling back to "./index"
// if none do).
func decodeMain(raw json.RawMessage, pm PackageManager) string {
	if len(raw) == 0 {
		return "./index"
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	if pm == Bower {
		var asArray []string
		if err := json.Unmarshal(raw, &asArray); err == nil {
			for _, entry := range asArray {
				if strings.HasSuffix(entry, ".js") {
					return entry
				}
			}
		}
	}

	return "./index"
}

// decodeBrowserField implements BrowserField's three-way polymorphism:
// a JSON string means the whole main entry point is replaced (Main); a
// JSON object means an explicit substitution map (Complex); anything
// else (missing, null, number, bool, array) means Empty.
func decodeBrowserField(raw json.RawMessage, absMain string, pm PackageManager) SubstitutionMap {
	if len(raw) == 0 {
		return SubstitutionMap{}
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		target := asString
		if !pathutil.IsExplicitlyRelative(target) && !strings.HasPrefix(target, "/") {
			target = "./" + target
		}
		m := SubstitutionMap{
			absMain: {Kind: Replace, Target: target},
		}
		if pm == Bower {
			m["."] = Substitution{Kind: Replace, Target: target}
		}
		return m
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err == nil {
		m := make(SubstitutionMap, len(asObject))
		for key, rawVal := range asObject {
			var asBool bool
			if err := json.Unmarshal(rawVal, &asBool); err == nil && !asBool {
				m[key] = Substitution{Kind: Ignore}
				continue
			}
			var target string
			if err := json.Unmarshal(rawVal, &target); err == nil {
				m[key] = Substitution{Kind: Replace, Target: target}
				continue
			}
			// Any other shape (true, number, nested object) carries no
			// substitution semantics; skip it rather than guess.
		}
		return m
	}

	return SubstitutionMap{}
}
