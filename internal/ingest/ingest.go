// Package ingest holds the event folders: one handler per upstream topic,
// each turning a decoded event into an idempotent row-store write. Handlers
// run on the consumer's single poll loop, so they hold no locks and return
// errors to fail the batch rather than retrying themselves.
package ingest

import "context"

// Recomputer recomputes and publishes the unread counts for one
// (employee, org) pair. Implemented by the readcount service; handlers call
// it after any write that can change the counts.
type Recomputer interface {
	Recompute(ctx context.Context, fnr, orgnummer string) error
}

const retentionMonths = 4
