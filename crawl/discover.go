package crawl

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docdex"
)

// downloadExts mark a URL as a downloadable document rather than a listing
// page to crawl.
var downloadExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".html": true,
	".htm":  true,
}

// Discoverer classifies links found on listing pages reachable from a seed.
// Document links may live anywhere on the seed's site; page links are
// restricted to the seed's path prefix so discovery never wanders site-wide.
type Discoverer struct {
	seed       *url.URL
	pathPrefix string
	followAll  bool
}

// NewDiscoverer creates a Discoverer scoped to the seed URL. When followAll
// is false only pagination links are followed; otherwise every in-scope page
// link is.
func NewDiscoverer(seedURL string, followAll bool) (*Discoverer, error) {
	u, err := url.Parse(seedURL)
	if err != nil || u.Host == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid seed URL %q", seedURL)
	}
	prefix := strings.TrimSuffix(u.Path, "/")
	if prefix == "" {
		prefix = "/"
	}
	return &Discoverer{seed: u, pathPrefix: prefix, followAll: followAll}, nil
}

// Listing holds the links extracted from one listing page, normalized and
// classified.
type Listing struct {
	Title     string
	Documents []string
	Pages     []string
}

// ParseListing extracts document and follow-up page links from listing page
// HTML. baseURL is the page's final URL after redirects; relative hrefs
// resolve against it.
func (d *Discoverer) ParseListing(baseURL string, body []byte) (*Listing, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid base URL %q", baseURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "listing page is not parseable HTML: %s", baseURL)
	}

	listing := &Listing{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		candidate, err := Normalize(href, base)
		if err != nil || seen[candidate] {
			return
		}
		seen[candidate] = true

		cu, err := url.Parse(candidate)
		if err != nil || (cu.Scheme != "http" && cu.Scheme != "https") {
			return
		}
		if !SameSite(cu, d.seed) {
			return
		}

		if IsDocumentURL(candidate) {
			listing.Documents = append(listing.Documents, candidate)
			return
		}
		if !d.pageInScope(cu) {
			return
		}
		if d.followAll || looksLikePagination(candidate) {
			listing.Pages = append(listing.Pages, candidate)
		}
	})

	return listing, nil
}

// pageInScope restricts page crawling to the seed path prefix.
func (d *Discoverer) pageInScope(u *url.URL) bool {
	if d.pathPrefix == "/" {
		return true
	}
	p := u.Path
	return p == d.pathPrefix || strings.HasPrefix(p, d.pathPrefix+"/")
}

// IsDocumentURL reports whether the URL path looks like a downloadable
// document.
func IsDocumentURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return downloadExts[strings.ToLower(path.Ext(u.Path))]
}

// looksLikePagination matches Drupal-style pager links, the common shape on
// government listing sites.
func looksLikePagination(rawURL string) bool {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "?page="), strings.Contains(u, "&page="):
		return true
	case strings.Contains(u, "?p="), strings.Contains(u, "&p="):
		return true
	case strings.Contains(u, "pager"):
		return true
	}
	return false
}
