// Package logger builds the zap logger and the request logging middleware.
//
// WithRayID attaches the request's ray id to a logger so every line written
// while serving one request can be correlated.
//
//	log, _ := logger.New(&cfg.Log)
//	app.Use(rayid.New(), logger.Requests(log))
//
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
