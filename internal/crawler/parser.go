package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/sitegrab/internal/asset"
)

// Parser extracts links, image sources and media references from a page.
// References are resolved against the page URL, or against the document's
// <base href> once it has been seen.
type Parser struct {
	baseURL *url.URL
}

// ParseResult holds what Parse found. Each list keeps document order with
// duplicates removed.
type ParseResult struct {
	// Title is the text of the first <title> element.
	Title string

	// Description and Keywords come from <meta name="..."> tags.
	Description string
	Keywords    string

	// Links are the <a href> targets. A target repeated on the page is
	// listed once, at its first position, so PageRecord.Links never
	// carries duplicates.
	Links []string

	// Images are the <img src> sources.
	Images []string

	// Media are <video>, <audio> and <source> sources and <link href>
	// targets that point at a downloadable file.
	Media []string
}

// NewParser creates a Parser for a page fetched from baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse reads the document from r. Malformed markup is tolerated the way
// browsers tolerate it; an error is only returned when r fails.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	c := &collector{
		base:   p.baseURL,
		result: &ParseResult{Links: []string{}, Images: []string{}, Media: []string{}},
		seen:   make(map[string]map[string]struct{}, 3),
	}
	c.walk(doc)
	return c.result, nil
}

type collector struct {
	base      *url.URL
	result    *ParseResult
	seen      map[string]map[string]struct{}
	haveTitle bool
	haveBase  bool
}

func (c *collector) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		c.element(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

func (c *collector) element(n *html.Node) {
	switch n.Data {
	case "base":
		if c.haveBase {
			return
		}
		if href := getAttr(n, "href"); href != "" {
			if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
				c.base = c.base.ResolveReference(u)
				c.haveBase = true
			}
		}

	case "title":
		if !c.haveTitle {
			c.result.Title = strings.TrimSpace(textOf(n))
			c.haveTitle = true
		}

	case "meta":
		content := getAttr(n, "content")
		switch strings.ToLower(getAttr(n, "name")) {
		case "description":
			if c.result.Description == "" {
				c.result.Description = content
			}
		case "keywords":
			if c.result.Keywords == "" {
				c.result.Keywords = content
			}
		}

	case "a":
		c.add("links", &c.result.Links, getAttr(n, "href"), false)

	case "img":
		c.add("images", &c.result.Images, getAttr(n, "src"), false)

	case "video", "audio", "source":
		c.add("media", &c.result.Media, getAttr(n, "src"), true)

	case "link":
		c.add("media", &c.result.Media, getAttr(n, "href"), true)
	}
}

// add resolves ref and appends it to list unless it is dropped or
// already present. downloadableOnly filters out non-asset targets.
func (c *collector) add(kind string, list *[]string, ref string, downloadableOnly bool) {
	resolved := resolveReference(c.base, ref)
	if resolved == "" {
		return
	}
	if downloadableOnly && !asset.IsDownloadable(resolved) {
		return
	}
	set := c.seen[kind]
	if set == nil {
		set = make(map[string]struct{})
		c.seen[kind] = set
	}
	if _, dup := set[resolved]; dup {
		return
	}
	set[resolved] = struct{}{}
	*list = append(*list, resolved)
}

// droppedPrefixes are reference prefixes that never name a fetchable resource.
var droppedPrefixes = []string{"javascript:", "mailto:", "tel:", "data:", "#"}

// resolveReference turns ref into an absolute http(s) URL, or returns ""
// when ref must be dropped.
func resolveReference(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	for _, prefix := range droppedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
