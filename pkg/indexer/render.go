package indexer

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ListingContentType is the content type listing documents are written with.
const ListingContentType = "text/html"

// listingTimeFormat renders modification times as zero-padded day,
// three-letter month, year, and 24h clock, always in UTC.
const listingTimeFormat = "02-Jan-2006 15:04"

// Listing is a freshly rendered listing document for one directory.
//
// Listings are ephemeral: recomputed every run, consumed by the reconciler,
// and discarded. Only the body is ever persisted, as the written object.
type Listing struct {
	// Dir is the directory the listing describes.
	Dir string

	// Body is the UTF-8 HTML document.
	Body []byte

	// Digest is the MD5 hash of Body. It doubles as the write integrity
	// check and as the comparison value against the stored ETag.
	Digest [md5.Size]byte
}

// HexDigest returns the digest in lowercase hex, the form S3 uses for
// plain-upload ETags.
func (l *Listing) HexDigest() string {
	return hex.EncodeToString(l.Digest[:])
}

// listingEntry is one row of a listing: a file or an immediate subdirectory.
type listingEntry struct {
	name     string
	modified time.Time
	size     int64
	isDir    bool
}

// Render produces the listing document for dir.
//
// The output is a pure function of the directory's entry set: identical
// contents always render to identical bytes, because the digest of this
// output drives the reconciliation decision. Entries are sorted by display
// name with a stable sort; files and subdirectories share one list.
func Render(t *Tree, dir string) *Listing {
	entries := make([]listingEntry, 0, len(t.Contents[dir]))
	for _, f := range t.Contents[dir] {
		_, base := splitKey(f.Key)
		entries = append(entries, listingEntry{
			name:     base,
			modified: f.LastModified,
			size:     f.Size,
		})
	}
	for d := range t.Contents {
		if d != "" && parentDir(d) == dir {
			_, base := splitKey(d)
			entries = append(entries, listingEntry{name: base, isDir: true})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&buf, "<html>\n<head>\n<title>Index of %s/</title>\n", dir)
	buf.WriteString("<style>table {font-family: monospace;} table td { padding-right: 40px;}</style>\n")
	fmt.Fprintf(&buf, "</head>\n<body>\n<h1>Index of %s/</h1>\n<hr>\n<table>\n", dir)
	if dir != "" {
		buf.WriteString("<tr><td><a href=\"../\">../</a></td><td></td><td></td></tr>\n")
	}
	for _, e := range entries {
		name := e.name
		date := ""
		size := ""
		if e.isDir {
			name += "/"
		} else {
			date = e.modified.UTC().Format(listingTimeFormat)
			size = strconv.FormatInt(e.size, 10)
		}
		fmt.Fprintf(&buf, "<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td>%s</td></tr>\n",
			name, name, date, size)
	}
	buf.WriteString("</table>\n</body>\n</html>\n")

	body := buf.Bytes()
	return &Listing{
		Dir:    dir,
		Body:   body,
		Digest: md5.Sum(body),
	}
}
