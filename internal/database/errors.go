package database

import "errors"

var (
	// ErrDatabaseNotFound is returned by Open when the database file is
	// missing and creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("crawl run not found")

	// ErrNoOutcome is returned by SaveJob for a job without an outcome.
	ErrNoOutcome = errors.New("job has no outcome to save")
)
