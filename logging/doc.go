// Package logging provides the minimal Logger interface used across fieldroutes
// together with an slog-backed implementation and a no-op logger.
//
// Components accept a Logger through a functional option and fall back to
// NoOpLogger, so library code never writes output unless the caller asks for it:
//
//	logger := logging.NewLogger(logging.Config{Level: logging.LevelDebug, Format: "text"})
//	coord := routing.NewCoordinator(field, engine, routing.WithLogger(logger))
package logging
