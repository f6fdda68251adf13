// Package workflow orchestrates one synchronization run: repair the media
// tree, build the merged episode ledger, prune the subscription manifest,
// pull new classes through the configured scraper strategy, and record the
// outcome in metrics and history. A run holds an exclusive file lock for
// its whole duration; the media tree and manifest have a single owner.
package workflow
