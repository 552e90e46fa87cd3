// Package notifications delivers pipeline milestone events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Stage handlers and the workflow manager depend only on the
// Service interface, so alternative transports can be added without touching
// pipeline code.
package notifications
