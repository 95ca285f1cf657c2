package analysis

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discover(t *testing.T, markup, pageURL string) []Candidate {
	t.Helper()
	doc, err := Parse(markup)
	require.NoError(t, err)
	base, err := url.Parse(pageURL)
	require.NoError(t, err)
	return DiscoverLinks(doc, pageURL, base)
}

func candidateURLs(cands []Candidate) []string {
	urls := make([]string, 0, len(cands))
	for _, c := range cands {
		urls = append(urls, c.URL)
	}
	return urls
}

func TestDiscoverLinks_CrossOriginSkipped(t *testing.T) {
	cands := discover(t, `<a href="https://other.com/x">Other</a><a href="/local">Local</a>`, "https://example.com/")
	assert.Equal(t, []string{"https://example.com/local"}, candidateURLs(cands))
}

func TestDiscoverLinks_DocumentsAndFragmentsSkipped(t *testing.T) {
	cands := discover(t, `<a href="/doc.pdf">Doc</a><a href="#section">Jump</a>`, "https://example.com/")
	assert.Empty(t, cands)
}

func TestDiscoverLinks_SkipRules(t *testing.T) {
	markup := `
		<a href="">empty</a>
		<a href="   ">blank</a>
		<a href="javascript:void(0)">js</a>
		<a href="JavaScript:alert(1)">js upper</a>
		<a href="mailto:a@example.com">mail</a>
		<a href="tel:+123">phone</a>
		<a href="/image.PNG">upper ext</a>
		<a href="/archive.zip">zip</a>
		<a href="http://example.com/plain">other scheme</a>
		<a href="https://example.com:8443/port">other port</a>
		<a href="//EXAMPLE.com/host-case">host case</a>
		<a href="http://[::1">malformed</a>`

	cands := discover(t, markup, "https://example.com/")
	assert.Equal(t, []string{"https://EXAMPLE.com/host-case"}, candidateURLs(cands))
	assert.Equal(t, "https://example.com/host-case", cands[0].Key)
}

func TestDiscoverLinks_DedupeOnNormalizedForm(t *testing.T) {
	markup := `
		<a href="/page?utm=1">first</a>
		<a href="/page#top">second</a>
		<a href="https://example.com/page">third</a>
		<a href="/">home</a>
		<a href="https://example.com">bare</a>`

	cands := discover(t, markup, "https://example.com/blog/")
	require.Len(t, cands, 2)
	assert.Equal(t, "https://example.com/page?utm=1", cands[0].URL)
	assert.Equal(t, "https://example.com/page", cands[0].Key)
	assert.Equal(t, "https://example.com/", cands[1].Key)
}

func TestDiscoverLinks_Ranking(t *testing.T) {
	markup := `<html><body>
		<footer><a href="/legal">x</a></footer>
		<main><a href="/deep/one">Read the long story</a></main>
		<nav><a href="/products" title="Catalogue">Products</a></nav>
		<div role="navigation"><a href="/team">Team</a></div>
		<footer><a href="/imprint">y</a></footer>
	</body></html>`

	cands := discover(t, markup, "https://example.com/")
	require.Len(t, cands, 5)

	// nav(3) + text(1) + title(1) + keyword(2)
	assert.Equal(t, "https://example.com/products", cands[0].URL)
	assert.Equal(t, 7, cands[0].Score)
	// main(2) + text(1) + long text(1)
	assert.Equal(t, "https://example.com/deep/one", cands[1].URL)
	assert.Equal(t, 4, cands[1].Score)
	// role=navigation(3) + text(1)
	assert.Equal(t, "https://example.com/team", cands[2].URL)
	assert.Equal(t, 4, cands[2].Score)
	// equal scores keep document order
	assert.Equal(t, "https://example.com/legal", cands[3].URL)
	assert.Equal(t, "https://example.com/imprint", cands[4].URL)
}

func TestDiscoverLinks_RelativeToPage(t *testing.T) {
	cands := discover(t, `<a href="sibling">s</a><a href="../up">u</a>`, "https://example.com/a/b/page")
	assert.Equal(t, []string{"https://example.com/a/b/sibling", "https://example.com/a/up"}, candidateURLs(cands))
}
