// Package api exposes crawls over HTTP.
//
// POST /api/crawl runs one crawl synchronously and answers with the
// outcome as JSON. Downloaded assets are served read-only below
// /downloads/, using the same relative paths that appear in the outcome.
// When a history database is attached, earlier runs are listed under
// /api/history.
package api
