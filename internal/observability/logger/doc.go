// Package logger wraps zap with a process-wide singleton, context
// propagation, and typed field constructors so log keys stay consistent
// across layers (controller, service, repository, client).
//
// Usage:
//
//	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("signup"), logger.Op("Finalize"))
//	log.Info("signup complete", logger.UserID(id))
package logger
