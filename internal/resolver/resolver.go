// Package resolver implements the Node-style module resolution
// algorithm: package-manifest-aware path candidate probing, browser
// field substitution (module-name and per-path forms), external-module
// shorting, and the iterative parent walk that looks for an installed
// component store.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/manifest"
	"github.com/packline-dev/packline/internal/pathutil"
	"github.com/packline-dev/packline/internal/pkgcache"
)

// Kind distinguishes the three possible outcomes of a resolve.
type Kind int

const (
	KindNormal Kind = iota
	KindExternal
	KindIgnore
)

// Resolved is the outcome of resolving one specifier: an absolute path
// to include (KindNormal), a bare reference to leave untouched in the
// output (KindExternal), or the runtime's empty-object placeholder
// (KindIgnore).
type Resolved struct {
	Kind Kind
	Path string // valid only when Kind == KindNormal
}

var candidateExtensions = []string{".mjs", ".js", ".json"}
var indexNames = []string{"index.mjs", "index.js", "index.json"}

// Resolver resolves specifiers against a file system, a package
// manager convention, and an external-module set. One Resolver owns
// exactly one PackageCache and is never shared across goroutines.
type Resolver struct {
	fs       iofs.FS
	pm       manifest.PackageManager
	external map[string]bool
	cache    *pkgcache.Cache
}

// New builds a Resolver reading through fs, using package manager pm,
// and treating every name in external as an External result.
func New(fs iofs.FS, pm manifest.PackageManager, external []string) *Resolver {
	ext := make(map[string]bool, len(external))
	for _, name := range external {
		ext[name] = true
	}
	return &Resolver{
		fs:       fs,
		pm:       pm,
		external: ext,
		cache:    pkgcache.New(fs, pm),
	}
}

// ResolveMain resolves the entry point given on the command line,
// relative to cwd. A result other than KindNormal is itself an error:
// an entry point cannot be external or ignored.
func (r *Resolver) ResolveMain(cwd string, spec string) (Resolved, error) {
	resolved, err := r.resolvePathOrModule(cwd, spec)
	if err != nil {
		return Resolved{}, err
	}
	switch resolved.Kind {
	case KindExternal:
		return Resolved{}, bundlerrors.New(bundlerrors.ExternalMain, "entry point resolved to an external module").WithSpecifier(spec)
	case KindIgnore:
		return Resolved{}, bundlerrors.New(bundlerrors.IgnoredMain, "entry point resolved to an ignored module").WithSpecifier(spec)
	default:
		return resolved, nil
	}
}

// Resolve resolves spec as it appears inside contextPath (the file that
// contains the require/import).
func (r *Resolver) Resolve(contextPath string, spec string) (Resolved, error) {
	contextDir := filepath.Dir(contextPath)
	return r.resolvePathOrModule(contextDir, spec)
}

func (r *Resolver) resolvePathOrModule(contextDir string, spec string) (Resolved, error) {
	if spec == "" {
		return Resolved{}, bundlerrors.New(bundlerrors.EmptyModuleName, "module specifier is empty")
	}

	var p string
	switch {
	case strings.HasPrefix(spec, "/"):
		p = filepath.Clean(spec)
	case pathutil.IsExplicitlyRelative(spec):
		p = pathutil.AppendResolving(contextDir, spec)
	default:
		return r.resolveModuleName(contextDir, spec)
	}

	if p == "/" {
		return Resolved{}, bundlerrors.New(bundlerrors.RequireRoot, "specifier resolves to the file system root").WithSpecifier(spec)
	}

	resolved, ok, err := r.probeCandidates(p, true)
	if err != nil {
		return Resolved{}, err
	}
	if !ok {
		return Resolved{}, bundlerrors.New(bundlerrors.ModuleNotFound, "cannot find module").WithSpecifier(spec)
	}
	return resolved, nil
}

// resolveModuleName implements §4.1's "module-name path": first the
// browser-field substitution keyed by the specifier's head segment,
// then the iterative parent walk probing <dir>/<store>/<spec>.
func (r *Resolver) resolveModuleName(contextDir string, spec string) (Resolved, error) {
	head := pathutil.HeadSegment(spec)

	if r.external[head] {
		return Resolved{Kind: KindExternal}, nil
	}

	if info := r.cache.Nearest(contextDir); info != nil {
		if sub, ok := info.CheckModuleName(head); ok {
			switch sub.Kind {
			case manifest.Ignore:
				return Resolved{Kind: KindIgnore}, nil
			case manifest.Replace:
				newSpec := sub.Target + spec[len(head):]
				return r.resolvePathOrModule(contextDir, newSpec)
			}
		}
	}

	store := r.pm.Dir()
	cur := contextDir
	for {
		if filepath.Base(cur) != store {
			candidate := filepath.Join(cur, store, spec)
			if resolved, ok, err := r.probeCandidates(candidate, true); err != nil {
				return Resolved{}, err
			} else if ok {
				return resolved, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return Resolved{}, bundlerrors.New(bundlerrors.ModuleNotFound, "cannot find module").WithSpecifier(spec)
}

// probeCandidates implements §4.1's path candidate sequence. When
// allowManifestRecursion is false, step 3 (probing a package manifest's
// main entry) is skipped, enforcing the "only one level of manifest
// recursion" rule.
func (r *Resolver) probeCandidates(p string, allowManifestRecursion bool) (Resolved, bool, error) {
	if !pathutil.NeedsDir(p) {
		if resolved, ok, err := r.checkPath(p); ok || err != nil {
			return resolved, ok, err
		}
		for _, ext := range candidateExtensions {
			if resolved, ok, err := r.checkPath(p + ext); ok || err != nil {
				return resolved, ok, err
			}
		}
	}

	if allowManifestRecursion {
		if info := r.cache.PackageInfo(p); info != nil {
			if resolved, ok, err := r.probeCandidates(info.Main, false); ok || err != nil {
				return resolved, ok, err
			}
		}
	}

	for _, name := range indexNames {
		candidate := filepath.Join(p, name)
		if resolved, ok, err := r.checkPath(candidate); ok || err != nil {
			return resolved, ok, err
		}
	}

	return Resolved{}, false, nil
}

// checkPath is the per-candidate step: consult the nearest enclosing
// package's browser substitutions keyed by the absolute candidate path
// before ever touching disk.
func (r *Resolver) checkPath(candidate string) (Resolved, bool, error) {
	if info := r.cache.Nearest(filepath.Dir(candidate)); info != nil {
		if sub, ok := info.CheckPath(candidate); ok {
			switch sub.Kind {
			case manifest.Ignore:
				return Resolved{Kind: KindIgnore}, true, nil
			case manifest.Replace:
				return Resolved{Kind: KindNormal, Path: sub.Target}, true, nil
			}
		}
	}

	if r.fs.IsFile(candidate) {
		return Resolved{Kind: KindNormal, Path: candidate}, true, nil
	}
	return Resolved{}, false, nil
}
