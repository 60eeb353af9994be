package asset

import "errors"

var (
	// ErrDownload wraps every download failure.
	ErrDownload = errors.New("download failed")

	// ErrInvalidAssetURL is returned for URLs without an http(s) scheme and host.
	ErrInvalidAssetURL = errors.New("invalid asset URL")

	// ErrInvalidDomain is returned when the domain cannot be used as a directory name.
	ErrInvalidDomain = errors.New("invalid domain directory")

	// ErrNoFreeFileName is returned when every collision suffix is taken.
	ErrNoFreeFileName = errors.New("no free file name")
)
