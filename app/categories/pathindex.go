package categories

import (
	"strings"

	"github.com/arborcms/arbor/models"
)

// Materialized path helpers.
//
// Every category stores its full path from the root, e.g. "/electronics/phones".
// The path doubles as the subtree index: descendants of a node are exactly the
// rows whose path starts with node.Path + "/".

// ChildPath returns the path of a child with the given slug under parentPath.
// An empty parentPath produces a root path.
func ChildPath(parentPath, slug string) string {
	return parentPath + models.PathSeparator + slug
}

// SplitPath returns the slug segments of a path in root-first order.
func SplitPath(path string) []string {
	trimmed := strings.Trim(path, models.PathSeparator)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, models.PathSeparator)
}

// PathDepth returns the number of segments in a path. A root path has depth 1,
// so depth is always level+1 for a well-formed node.
func PathDepth(path string) int {
	return len(SplitPath(path))
}

// AncestorPaths returns the paths of all proper ancestors of path, nearest the
// root first. A root path has no ancestors.
func AncestorPaths(path string) []string {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return nil
	}
	paths := make([]string, 0, len(segments)-1)
	current := ""
	for _, segment := range segments[:len(segments)-1] {
		current += models.PathSeparator + segment
		paths = append(paths, current)
	}
	return paths
}

// ReplacePathPrefix rewrites a descendant path after its subtree root moved
// from oldPrefix to newPrefix. The caller guarantees path is oldPrefix itself
// or below it.
func ReplacePathPrefix(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	return newPrefix + strings.TrimPrefix(path, oldPrefix)
}

// IsPathAncestor reports whether ancestor strictly contains descendant.
func IsPathAncestor(ancestor, descendant string) bool {
	return strings.HasPrefix(descendant, ancestor+models.PathSeparator)
}

// RootSegment returns the first slug segment of a path, which identifies the
// subtree root the node belongs to. Mutations serialize on this key.
func RootSegment(path string) string {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}
