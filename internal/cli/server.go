package cli

import (
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/Komal-TGT/Storage-service/internal/handlers"
	"github.com/Komal-TGT/Storage-service/internal/web"
	"github.com/Komal-TGT/Storage-service/middlewares"
	"github.com/Komal-TGT/Storage-service/pkg/db"
	"github.com/Komal-TGT/Storage-service/pkg/job"
	"github.com/Komal-TGT/Storage-service/pkg/redis"
)

// Handler assembles the HTTP surface. jobs may be nil.
func (rt *Runtime) Handler(jobs *job.Manager) (http.Handler, error) {
	compress, err := middlewares.Compress()
	if err != nil {
		return nil, err
	}

	httpCfg := rt.Config.HTTP

	checks := []web.HealthOption{
		web.WithLivenessAlias("/health"),
		web.WithHealthTimeout(httpCfg.HealthTimeout),
		web.WithReadinessCheck("storage", rt.Account.Primary().Healthcheck),
		web.WithReadinessCheck("backup_storage", rt.Account.Backup().Healthcheck),
	}
	if rt.Redis != nil {
		checks = append(checks, web.WithReadinessCheck("redis", redis.Healthcheck(rt.Redis)))
	}
	if rt.Pool != nil {
		checks = append(checks, web.WithReadinessCheck("postgres", db.Healthcheck(rt.Pool)))
	}
	if jobs != nil {
		checks = append(checks, web.WithReadinessCheck("jobs", job.Healthcheck(jobs)))
	}

	receipts := handlers.NewReceipts(rt.Account.Primary(), rt.Issuer,
		handlers.WithAPIKeyGate(middlewares.APIKey(rt.Logger, httpCfg.APIKeys...)),
		handlers.WithMaxUpload(httpCfg.MaxUploadBytes),
		handlers.WithRequestTimeout(httpCfg.RequestTimeout),
	)

	return web.New(
		web.WithLogger(rt.Logger),
		web.WithErrorHandler(handlers.ErrorHandler),
		web.WithNotFoundHandler(handlers.NotFound),
		web.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		web.WithHTTPMiddleware(compress),
		web.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Logging(),
			middlewares.Recover(middlewares.WithSentryHub(sentry.CurrentHub())),
			middlewares.SecureHeaders(),
			middlewares.CORS(middlewares.WithAllowOrigins(httpCfg.AllowOrigins...)),
		),
		web.WithHealthChecks(checks...),
		web.WithHandlers(receipts),
	), nil
}
