// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key) protecting the sync endpoints.
//   - rayid: a unique request id (RayID) for every request, stored in the context
//     locals and echoed in the X-Ray-ID response header for tracing.
//   - httpmetrics: prometheus request counts and durations, labelled by route pattern.
//
// RayID must be registered first so every later log line can carry the id.
package middleware
