// Package export renders crawl outcomes for the ML dataset.
//
// Four formats are supported: json (the outcome as indented JSON), text
// (the plain text of every page), markdown (page markdown plus a downloads
// summary) and html (the raw markup of every page). Each page is delimited
// by a header naming its URL so the output can be split again.
package export
