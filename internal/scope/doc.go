// Package scope decides which URLs belong to a crawl.
//
// A crawl is bound to the host of its seed URL. A URL is in scope when its
// hostname equals that domain or is a subdomain of it; "blog.example.com"
// belongs to "example.com" but "notexample.com" does not. Optional glob
// filters from the site file narrow the scope further by URL path.
package scope
