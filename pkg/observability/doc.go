/*
Package observability provides tools for monitoring the Tapestry runtime.

It includes lifecycle hooks for structured logging and Prometheus metrics, a combinator
for attaching several hook sets to one engine, and an Aggregator that turns the engine's
session states into per-World diffs for live-link clients.
*/
package observability
