// Package metrics defines the Prometheus collectors of the tag sync.
//
// Collectors are registered with the default registry at package init through
// promauto, and are exposed by the HTTP server on /metrics.
//
// # Collectors
//
//   - Run level: runs by status, a running gauge, last run timestamp and duration.
//   - Pass level: entities scanned and updated, tags written, per entity kind.
//   - Batch level: commit duration and busy retries, per entity kind.
//   - HTTP: requests by method, route and status.
package metrics
