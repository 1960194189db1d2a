// Package middleware provides HTTP middleware for the vidcompress server.
//
// It includes:
//   - Request IDs, accepted from proxies or generated
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with low-cardinality path labels
//   - Configurable filtering for object downloads and health checks
package middleware
