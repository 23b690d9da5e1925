// Package app assembles the sales dashboard server: configuration, logging,
// telemetry, the CSV-backed dataset service and the chi router, with a
// graceful-run loop driving them.
package app
