// Package history records the outcome of every configuration resolution
// attempt so operators can audit when configuration changed, what triggered
// the change, and which attempts failed with which violations.
//
// The SQLite store is the durable backend; the in-memory store backs tests
// and deployments that do not need persistence. Both are safe for
// concurrent use.
package history
