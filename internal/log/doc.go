// Package log provides secure logging with automatic sanitization of
// sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks attribute values that look like credentials
// before they reach the underlying handler: storefront passwords,
// access and refresh tokens, session keys, and derived key material.
// Even in verbose mode those values never appear in log output, which
// matters because the session secret alone is enough to decrypt every
// purchased tile.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("session ready",
//	    "access_token", tok,   // masked
//	    "issue", "B00ABC123",  // left alone
//	)
package log
