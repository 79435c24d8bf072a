package indexer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagander/s3indexbuilder/pkg/provider"
)

func TestRenderDeterministic(t *testing.T) {
	build := func() *Tree {
		tree := Split([]provider.ObjectSummary{
			obj("docs/a.txt", 10),
			obj("docs/b.txt", 20),
		})
		tree.Complete("")
		return tree
	}

	first := Render(build(), "docs")
	second := Render(build(), "docs")

	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.HexDigest(), second.HexDigest())
}

func TestRenderSortsFilesAndDirsTogether(t *testing.T) {
	tree := Split([]provider.ObjectSummary{
		obj("b.txt", 1),
		obj("c.txt", 2),
		obj("a/nested.txt", 3),
	})
	tree.Complete("")

	listing := Render(tree, "")
	body := string(listing.Body)

	// Entries merge into one list ordered by display name: a/ before
	// b.txt before c.txt.
	posA := strings.Index(body, `<a href="a/">`)
	posB := strings.Index(body, `<a href="b.txt">`)
	posC := strings.Index(body, `<a href="c.txt">`)
	require.GreaterOrEqual(t, posA, 0)
	require.GreaterOrEqual(t, posB, 0)
	require.GreaterOrEqual(t, posC, 0)
	assert.Less(t, posA, posB)
	assert.Less(t, posB, posC)
}

func TestRenderRootHasNoParentLink(t *testing.T) {
	tree := Split([]provider.ObjectSummary{obj("file.txt", 1)})
	tree.Complete("")

	listing := Render(tree, "")

	assert.NotContains(t, string(listing.Body), `href="../"`)
}

func TestRenderSubdirHasParentLink(t *testing.T) {
	tree := Split([]provider.ObjectSummary{obj("docs/file.txt", 1)})
	tree.Complete("")

	listing := Render(tree, "docs")

	assert.Contains(t, string(listing.Body),
		"<tr><td><a href=\"../\">../</a></td><td></td><td></td></tr>\n")
}

func TestRenderFileRow(t *testing.T) {
	tree := Split([]provider.ObjectSummary{
		{
			Key:          "docs/guide.pdf",
			Size:         123456,
			LastModified: time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC),
		},
	})
	tree.Complete("")

	listing := Render(tree, "docs")

	assert.Contains(t, string(listing.Body),
		"<tr><td><a href=\"guide.pdf\">guide.pdf</a></td><td>05-Mar-2024 09:07</td><td>123456</td></tr>\n")
}

func TestRenderDirRowHasNoDateOrSize(t *testing.T) {
	tree := Split([]provider.ObjectSummary{obj("photos/2024/img.jpg", 1)})
	tree.Complete("")

	listing := Render(tree, "photos")

	assert.Contains(t, string(listing.Body),
		"<tr><td><a href=\"2024/\">2024/</a></td><td></td><td></td></tr>\n")
}

func TestRenderTimesAlwaysUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	tree := Split([]provider.ObjectSummary{
		{
			Key:          "file.bin",
			Size:         1,
			LastModified: time.Date(2024, 1, 2, 3, 30, 0, 0, loc),
		},
	})
	tree.Complete("")

	listing := Render(tree, "")

	// 03:30 UTC+5 is 22:30 the previous day in UTC.
	assert.Contains(t, string(listing.Body), "01-Jan-2024 22:30")
}

func TestRenderVirtualDirectory(t *testing.T) {
	// "a" has no direct objects, only the synthesized entry and one
	// subdirectory row.
	tree := Split([]provider.ObjectSummary{obj("a/b/deep.txt", 1)})
	tree.Complete("")

	listing := Render(tree, "a")
	body := string(listing.Body)

	assert.Contains(t, body, "<h1>Index of a/</h1>")
	assert.Contains(t, body, `<a href="b/">b/</a>`)
	assert.Contains(t, body, `href="../"`)
	assert.NotContains(t, body, "deep.txt")
}

func TestRenderTitleAndHeading(t *testing.T) {
	tree := Split([]provider.ObjectSummary{obj("a/b/file.txt", 1)})
	tree.Complete("")

	listing := Render(tree, "a/b")
	body := string(listing.Body)

	assert.Contains(t, body, "<title>Index of a/b/</title>")
	assert.Contains(t, body, "<h1>Index of a/b/</h1>")
}

func TestRenderDocumentStructure(t *testing.T) {
	tree := Split([]provider.ObjectSummary{obj("file.txt", 1)})
	tree.Complete("")

	body := string(Render(tree, "").Body)

	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>\n"))
	assert.True(t, strings.HasSuffix(body, "</table>\n</body>\n</html>\n"))
	assert.Contains(t, body, "<style>table {font-family: monospace;} table td { padding-right: 40px;}</style>")
}

func TestRenderDigestMatchesBody(t *testing.T) {
	tree := Split([]provider.ObjectSummary{obj("file.txt", 1)})
	tree.Complete("")

	listing := Render(tree, "")

	require.Len(t, listing.HexDigest(), 32)

	// Any body change must change the digest.
	tree2 := Split([]provider.ObjectSummary{obj("file2.txt", 1)})
	tree2.Complete("")
	other := Render(tree2, "")
	assert.NotEqual(t, listing.HexDigest(), other.HexDigest())
}

func TestRenderOnlyImmediateChildren(t *testing.T) {
	tree := Split([]provider.ObjectSummary{
		obj("top.txt", 1),
		obj("a/mid.txt", 2),
		obj("a/b/deep.txt", 3),
	})
	tree.Complete("")

	body := string(Render(tree, "").Body)
	assert.Contains(t, body, "top.txt")
	assert.Contains(t, body, `<a href="a/">`)
	assert.NotContains(t, body, "mid.txt")
	assert.NotContains(t, body, `<a href="b/">`)
}
