// Package health serves liveness and readiness probes.
//
// Liveness only reports that the process answers HTTP. Readiness runs the
// registered dependency checks (object storage, redis, postgres, job
// manager) concurrently under one timeout and answers 503 if any fails:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "storage": acct.Primary().Healthcheck,
//	    "redis":   redis.Healthcheck(client),
//	}, health.WithTimeout(2*time.Second)))
package health
