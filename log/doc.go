// Package log provides the leveled, printf-style logger used by the pipeline,
// the HTTP server and the CLI.
//
// The only backend is github.com/kataras/golog:
//
//	logger := log.New(os.Stderr, log.LogLevelInfo, "scriptflow")
//	logger.Info("gathered %d sources for %q", n, topic)
//
// Components accept a Logger and fall back to the package-level logger through
// OrDefault when none is given. Tests pass a *NoOpLogger.
package log
