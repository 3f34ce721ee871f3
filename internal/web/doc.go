// Package web is the HTTP layer of the receipt gateway.
//
// It wraps a chi router with a handler signature that returns errors,
// a request Context that also implements context.Context, and health
// endpoints backed by pkg/health.
//
//	app := web.New(
//	    web.WithLogger(log),
//	    web.WithErrorHandler(handlers.ErrorHandler),
//	    web.WithMiddleware(requestid.Middleware(), recover.Middleware()),
//	    web.WithHandlers(receipts),
//	    web.WithHealthChecks(web.WithReadinessCheck("storage", acct.Primary().Healthcheck)),
//	)
//	err := web.Run(ctx, ":8080", app, web.Logger(log))
//
// Handlers implement Handler and declare routes on a Router:
//
//	func (h *Receipts) Routes(r web.Router) {
//	    r.POST("/receipts/upload", h.upload)
//	    r.GET("/receipts/download", h.download)
//	}
//
// An error returned from a HandlerFunc is passed to the ErrorHandler
// unless the response was already started. Without one, the app answers
// 500 with a plain text body.
package web
