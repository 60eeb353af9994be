// Package asset classifies and stores the downloadable files a crawl finds.
//
// Category maps a URL to a storage category by its file extension.
// Downloader fetches an asset and writes it to
// <root>/<domain>/<category>/<filename>, choosing a free name when the
// file already exists. Images additionally get a short EXIF summary.
package asset
