// Package main provides the entry point for the sitegrab CLI.
//
// sitegrab crawls a website breadth-first within its own domain and turns
// it into a dataset: plain text, markdown and raw markup per page, plus
// the images and files the pages reference, laid out on disk by domain
// and category.
//
// Usage:
//
//	sitegrab crawl https://example.com/
//	sitegrab crawl -r -d 2 -f markdown -o site.md https://example.com/
//	sitegrab serve --addr 127.0.0.1:8080
//
// See --help for all available options.
package main

func main() {
	Execute()
}
