// Package pathutil implements the bundler's logical path arithmetic:
// joining, normalizing, and computing relative paths without ever
// touching the file system. Every operation here is lexical.
package pathutil

import "strings"

const sep = "/"

// AppendResolving joins base with more the way a shell would resolve
// "cd more" from base, purely lexically: "." components vanish and ".."
// components pop the last pushed component. A leading "/" on more does
// not replace base: more's components are always appended below base.
// It never touches disk.
func AppendResolving(base string, more string) string {
	abs := strings.HasPrefix(base, sep)
	parts := splitComponents(base)
	for _, c := range splitRaw(more) {
		switch c {
		case "":
			continue
		case ".":
			// no-op
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, c)
		}
	}
	if abs {
		return sep + strings.Join(parts, sep)
	}
	return strings.Join(parts, sep)
}

// PrependResolving resolves more = AppendResolving(base, self) and
// returns it; it exists as the mirror of AppendResolving for call sites
// that read more naturally "prepend base onto self".
func PrependResolving(self string, base string) string {
	return AppendResolving(base, self)
}

// Join is a thin helper over AppendResolving for the common two-piece
// case, always returning an absolute-looking path when base is absolute.
func Join(base string, more string) string {
	return AppendResolving(base, more)
}

// IsExplicitlyRelative reports whether p's first path component is "."
// or "..", i.e. whether it was written as an explicitly relative
// specifier ("./x", "../x") as opposed to a bare module name ("x").
func IsExplicitlyRelative(p string) bool {
	parts := splitRaw(p)
	for _, c := range parts {
		if c == "" {
			continue
		}
		return c == "." || c == ".."
	}
	return false
}

// RelativeFrom computes a path from base to target purely lexically,
// without consulting the file system, matching the component-wise walk
// used by the original bundler this tool was modeled on rather than
// filepath.Rel (which differs on Windows volume handling and requires
// both inputs be already-clean absolute paths).
//
// If target and base disagree on absoluteness, the result is target
// itself (unchanged) when target is absolute, or "", false when base is
// absolute and target is not.
func RelativeFrom(target string, base string) (string, bool) {
	targetAbs := strings.HasPrefix(target, sep)
	baseAbs := strings.HasPrefix(base, sep)
	if targetAbs != baseAbs {
		if targetAbs {
			return target, true
		}
		return "", false
	}

	a := splitComponents(target)
	b := splitComponents(base)

	var out []string
	ia, ib := 0, 0
	for {
		switch {
		case ia >= len(a) && ib >= len(b):
			if len(out) == 0 {
				return ".", true
			}
			return strings.Join(out, sep), true
		case ia < len(a) && ib >= len(b):
			out = append(out, a[ia:]...)
			return strings.Join(out, sep), true
		case ia >= len(a):
			out = append(out, "..")
			ib++
		case len(out) == 0 && a[ia] == b[ib]:
			ia++
			ib++
		case b[ib] == ".":
			out = append(out, a[ia])
			ia++
			ib++
		case b[ib] == "..":
			return "", false
		default:
			for ; ib < len(b); ib++ {
				out = append(out, "..")
			}
			out = append(out, a[ia:]...)
			return strings.Join(out, sep), true
		}
	}
}

// NeedsDir reports whether spec, as written, can only ever resolve to a
// directory candidate: it ends with a trailing separator, or its final
// path component is "." or "..".
func NeedsDir(spec string) bool {
	if strings.HasSuffix(spec, sep) {
		return true
	}
	parts := splitRaw(spec)
	if len(parts) == 0 {
		return false
	}
	last := parts[len(parts)-1]
	return last == "." || last == ".."
}

// HeadSegment returns the first path component of spec, i.e. the
// segment up to (not including) the first "/".
func HeadSegment(spec string) string {
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		return spec[:i]
	}
	return spec
}

func splitRaw(p string) []string {
	return strings.Split(p, sep)
}

func splitComponents(p string) []string {
	var out []string
	for _, c := range splitRaw(p) {
		if c == "" || c == "." {
			continue
		}
		out = append(out, c)
	}
	return out
}
