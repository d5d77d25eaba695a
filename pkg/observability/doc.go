/*
Package observability provides lifecycle hooks for monitoring the seedbed engine.

It includes Prometheus metrics for runs, blocks and records, and slog-based
audit hooks for tracing a run block by block.
*/
package observability
