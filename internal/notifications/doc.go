// Package notifications delivers check outcomes via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-event toggles let operators subscribe to drift alerts,
// recovery messages, or check failures independently without duplicating
// HTTP glue.
//
// Extend this package if you need alternative transports; all check code
// depends only on the simple Service interface.
package notifications
