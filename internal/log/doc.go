// Package log provides slog loggers that mask credentials before output.
//
// Crawls can be configured with custom request headers, and asset links
// often carry signed query strings. SecureHandler masks:
//   - well-known credential headers (Authorization, Cookie, X-Api-Key)
//   - keys containing password, secret, token, auth or credential
//   - bearer, basic and JWT-shaped values
//   - userinfo passwords and signature/token query parameters in URLs
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("fetch failed", "url", pageURL, "error", err)
package log
