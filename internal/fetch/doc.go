// Package fetch performs the HTTP GET requests of a crawl.
//
// A Fetcher sends one request per call with a fixed browser-like
// User-Agent, reads the body up to a size limit and reports failures as
// *Error values whose Kind tells a transport failure apart from an
// unsuccessful status or an oversized body. NewHTTPClient builds the
// underlying client, optionally routed through a SOCKS5 proxy.
package fetch
