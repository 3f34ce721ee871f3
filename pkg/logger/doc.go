// Package logger builds the service's structured JSON logger.
//
// Records are enriched per call by context extractors (request id from the
// requestid middleware, component via WithComponent) and, when a Sentry DSN
// is configured, fanned out to Sentry: warnings become searchable logs and
// errors raise issues.
//
//	log, flush := logger.New(os.Stdout, cfg.Log,
//	    middlewares.RequestIDExtractor(),
//	    logger.ComponentExtractor(),
//	)
//	defer flush(2 * time.Second)
//
//	ctx = logger.WithComponent(ctx, "backup")
//	log.InfoContext(ctx, "backup cycle started")
//	// {"level":"INFO","msg":"backup cycle started","component":"backup"}
package logger
