// Package metrics accumulates per-stage counters for a single run and
// renders the end-of-run summary. Counters only ever increase within a run;
// the finalized record is immutable once written to history.
package metrics
