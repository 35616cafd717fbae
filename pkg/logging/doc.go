// Package logging provides a process-wide structured logger for
// scopelock's instrumentation layer.
//
// The package wraps [log/slog] behind a single global instance so that
// log level and destination are controlled from one place. The core
// primitives (pkg/locks, pkg/guard, pkg/cond, pkg/multilock,
// pkg/lockgroup) never log; only pkg/instrument and applications
// embedding the library emit through this package, keeping the hot
// paths silent by default.
//
// Call Init (or InitDefault) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stderr logger is
// created lazily, so packages that log during init are safe.
//
// Child-logger helpers pre-populate the structured fields used across
// the module:
//
//	log := logging.WithLock("accounts")
//	log.Warn("slow acquisition", "waited", waited)
package logging
