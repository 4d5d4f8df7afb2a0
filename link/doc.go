// Package link defines the chainable job wrapper and its three variants.
//
// A Link wraps a named job value with the variant tag that decides which
// host primitive dispatches it: Bulk (paginated enumeration), Task (one
// asynchronous invocation), or Timer (one invocation when a cron-style
// schedule fires). Jobs implement the variant contract (BulkJob, TaskJob,
// TimerJob) as ordinary Go types.
//
// Because every link executes in an isolated unit of work, a job type that
// crosses that boundary must be reconstructable there: register a no-arg
// factory under the link name in a Registry, and implement ArgCodec if the
// job carries external configuration that must survive the hand-off.
package link
