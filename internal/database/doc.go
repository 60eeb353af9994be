// Package database stores the crawl history in SQLite.
//
// Every finished crawl becomes a run: the seed, timing and totals, the
// complete outcome as JSON, one row per page with a SHA3-256 hash of its
// plain text, and one row per downloaded asset. Runs can be listed per
// domain and their outcomes loaded again for re-export.
//
// The driver is modernc.org/sqlite, which needs no cgo. The database is a
// single file in WAL mode with one open connection.
package database
