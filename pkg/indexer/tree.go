// Package indexer reconstructs a directory tree from flat object keys and
// reconciles generated index.html listing documents against the bucket.
//
// The tree is a flat map keyed by directory path rather than a linked node
// graph: every directory, including synthesized empty parents, is an entry
// in Contents. The empty string denotes the root (or the operating prefix
// when one is configured).
package indexer

import (
	"sort"
	"strings"

	"github.com/mhagander/s3indexbuilder/pkg/provider"
)

// ListingName is the reserved object base name for listing documents.
const ListingName = "index.html"

// Tree holds the directory structure derived from a flat key listing.
type Tree struct {
	// Listings maps a directory path to its existing listing document,
	// i.e. the object named index.html directly inside that directory.
	Listings map[string]provider.ObjectSummary

	// Contents maps a directory path to the content objects directly
	// inside it, in enumeration order. Synthesized parent directories map
	// to a nil slice.
	Contents map[string][]provider.ObjectSummary
}

// Split partitions enumerated records into listing documents and content
// objects, grouped by containing directory.
//
// An empty input yields two empty maps, which callers must treat as
// "nothing to do".
func Split(records []provider.ObjectSummary) *Tree {
	t := &Tree{
		Listings: make(map[string]provider.ObjectSummary),
		Contents: make(map[string][]provider.ObjectSummary),
	}

	for _, rec := range records {
		dir, base := splitKey(rec.Key)
		if base == ListingName {
			t.Listings[dir] = rec
		} else {
			t.Contents[dir] = append(t.Contents[dir], rec)
		}
	}

	return t
}

// Complete inserts an empty Contents entry for every missing ancestor of
// every content directory, so nested directories with no direct objects
// still receive a listing page.
//
// Ascent stops when the ancestor equals the operating prefix or becomes
// empty. The prefix itself (the root of the run) is always inserted if
// absent. Existing entries are never overwritten.
func (t *Tree) Complete(prefix string) {
	add := make(map[string]struct{})

	for dir := range t.Contents {
		for parent := parentDir(dir); parent != "" && parent != prefix; parent = parentDir(parent) {
			if _, ok := t.Contents[parent]; ok {
				continue
			}
			add[parent] = struct{}{}
		}
	}

	if _, ok := t.Contents[prefix]; !ok {
		add[prefix] = struct{}{}
	}

	for dir := range add {
		t.Contents[dir] = nil
	}
}

// Directories returns the content directory paths in sorted order.
//
// Reconciliation has no cross-directory ordering dependency; the sort only
// keeps logs and records stable.
func (t *Tree) Directories() []string {
	dirs := make([]string, 0, len(t.Contents))
	for dir := range t.Contents {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// ListingKey returns the object key of the listing document for a directory.
func ListingKey(dir string) string {
	if dir == "" {
		return ListingName
	}
	return dir + "/" + ListingName
}

// InvalidationPath returns the cache path covering a directory's listing.
func InvalidationPath(dir string) string {
	if dir == "" {
		return "/"
	}
	return "/" + dir + "/"
}

// splitKey splits an object key into its containing directory and base name.
// The directory of a top-level key is the empty string.
func splitKey(key string) (dir, base string) {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

// parentDir returns the directory containing dir, or the empty string for
// top-level directories.
func parentDir(dir string) string {
	idx := strings.LastIndex(dir, "/")
	if idx < 0 {
		return ""
	}
	return dir[:idx]
}
