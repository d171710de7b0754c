// Package log provides slog loggers that mask sensitive values.
//
// Site configuration can carry cookies, authorization headers and proxy
// credentials, and all of them may end up in debug output. SecureHandler
// masks them before records reach the underlying handler:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - values that look like bearer tokens, JWTs or API keys
//   - the password part of URLs and sensitive query parameters
//   - sensitive entries of header maps logged with slog.Any
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
