package link

import (
	"context"

	"github.com/renatoliveira/chainable/shared"
)

// BulkJob is the contract for the Bulk variant. The host's pagination
// machinery enumerates the work items once, feeds them to Process in pages,
// and calls OnComplete exactly once after the last page.
type BulkJob interface {
	// Enumerate supplies the finite set of work items for this execution.
	Enumerate(ctx context.Context, sc *shared.Context) ([]any, error)

	// Process consumes one page of work items.
	Process(ctx context.Context, sc *shared.Context, page []any) error

	// OnComplete fires once after all pages have been processed.
	OnComplete(ctx context.Context, sc *shared.Context) error
}

// Pager is optionally implemented by bulk jobs to control page granularity.
// Jobs that do not implement it get the engine's default page size.
type Pager interface {
	PageSize() int
}

// TaskJob is the contract for the Task variant: a single asynchronous
// invocation.
type TaskJob interface {
	Run(ctx context.Context, sc *shared.Context) error
}

// TimerJob is the contract for the Timer variant: a single invocation
// triggered when the schedule supplied at link construction fires.
// The schedule itself is owned by the host, not the job.
type TimerJob interface {
	Run(ctx context.Context, sc *shared.Context) error
}

// ArgCodec is optionally implemented by jobs whose construction arguments
// must survive the hand-off into another unit of work. CaptureArgs produces
// a portable representation of the externally supplied configuration;
// RestoreArgs repopulates a factory-fresh instance from it.
//
// Contract: RestoreArgs(CaptureArgs(x)) applied to a fresh instance yields a
// job whose observable behavior matches x for every captured field. Fields
// not captured are lost. Jobs with no external configuration omit both.
type ArgCodec interface {
	CaptureArgs() ([]byte, error)
	RestoreArgs(data []byte) error
}
