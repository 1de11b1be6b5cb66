// Package pkgcache memoizes per-directory package manifest lookups and
// implements the nearest-ancestor manifest walk. One Cache belongs to
// exactly one worker; it is never shared across goroutines, which is
// what lets it use a plain map instead of a mutex.
package pkgcache

import (
	"path/filepath"

	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/manifest"
)

// Cache is a directory -> *manifest.Info memo. A nil value recorded
// for a directory means "no manifest here, do not ask again" and is
// sticky for the cache's lifetime.
type Cache struct {
	fs      iofs.FS
	pm      manifest.PackageManager
	entries map[string]*manifest.Info
	looked  map[string]bool
}

// New creates a Cache reading through fs for package manager pm.
func New(fs iofs.FS, pm manifest.PackageManager) *Cache {
	return &Cache{
		fs:      fs,
		pm:      pm,
		entries: make(map[string]*manifest.Info),
		looked:  make(map[string]bool),
	}
}

// PackageInfo looks up the manifest for exactly dir, memoized. It tries
// each of the package manager's candidate manifest file names in order
// and returns the first one that exists and parses.
func (c *Cache) PackageInfo(dir string) *manifest.Info {
	if c.looked[dir] {
		return c.entries[dir]
	}
	c.looked[dir] = true

	for _, name := range c.pm.CandidateNames() {
		path := filepath.Join(dir, name)
		data, ok := c.fs.ReadFile(path)
		if !ok {
			continue
		}
		info, err := manifest.Parse(dir, c.pm, data)
		if err != nil {
			continue
		}
		c.entries[dir] = info
		return info
	}

	c.entries[dir] = nil
	return nil
}

// Nearest walks dir and its ancestors looking for the first directory
// with a manifest, skipping any directory whose own name is the
// component-store directory (so a lookup from inside node_modules/x
// does not treat node_modules itself as a package root).
func (c *Cache) Nearest(dir string) *manifest.Info {
	store := c.pm.Dir()
	cur := dir
	for {
		if filepath.Base(cur) != store {
			if info := c.PackageInfo(cur); info != nil {
				return info
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil
		}
		cur = parent
	}
}
