package callhandler

import (
	"path/filepath"
	"strings"

	"github.com/dbfsio/dbfs/internal/vfs"
)

// shouldIntercept implements the §4.3.1 path-classification predicate: the
// final component must end in ".bin", the path must sit at least four
// components below root with its third ancestor named "Saves", and the
// path's immediate parent directory must currently exist on the real
// filesystem.
func shouldIntercept(ops vfs.FileOps, path string) bool {
	if !strings.HasSuffix(filepath.Base(path), ".bin") {
		return false
	}

	dir := filepath.Dir(path)
	thirdAncestor := filepath.Dir(filepath.Dir(dir))
	if !hasParent(thirdAncestor) {
		return false
	}
	if filepath.Base(thirdAncestor) != "Saves" {
		return false
	}

	return ops.FileExists(dir)
}

// hasParent reports whether p has a parent directory distinct from itself,
// i.e. p is not a filesystem root.
func hasParent(p string) bool {
	parent := filepath.Dir(p)
	return parent != p
}
