// Package resolver is the façade over the configuration pipeline. A Manager
// owns the layered sources (defaults, file, active profile, environment,
// runtime overrides), resolves them into immutable snapshots, and publishes
// each successful snapshot atomically. Failed resolutions never disturb the
// published snapshot.
//
// Precedence is fixed: defaults < file < active profile < environment <
// runtime overrides. Overrides applied through Set and Update are batched
// and atomic: either every value in the batch survives validation and the
// whole batch is published, or none of it is.
//
// A Manager can additionally watch its file for changes (debounced, one
// resolution per burst of filesystem events) and re-resolve on a cron
// schedule via Scheduler.
package resolver
