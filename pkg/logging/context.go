package logging

import (
	"log/slog"
)

// WithLock creates a logger carrying the lock's name.
//
//	log := logging.WithLock("accounts")
//	log.Warn("slow acquisition", "waited", waited)
func WithLock(name string) *slog.Logger {
	return GetLogger().With("lock", name)
}

// WithOwner creates a logger carrying a lockgroup owner identity.
func WithOwner(ownerID int64) *slog.Logger {
	return GetLogger().With("owner_id", ownerID)
}

// WithKey creates a logger carrying a lockgroup resource key.
func WithKey(key any) *slog.Logger {
	return GetLogger().With("key", key)
}

// WithComponent creates a logger with component context.
//
//	log := logging.WithComponent("multilock")
//	log.Debug("retrying after backoff", "attempt", n)
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with the error pre-attached in structured
// form.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
