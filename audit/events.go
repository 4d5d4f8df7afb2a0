package audit

// Audit event actions. Each constant corresponds to one lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionChainStarted       = "chain.started"
	ActionChainCompleted     = "chain.completed"
	ActionChainFailed        = "chain.failed"
	ActionLinkStarted        = "link.started"
	ActionLinkCompleted      = "link.completed"
	ActionLinkFailed         = "link.failed"
	ActionDeferredRegistered = "deferred.registered"
	ActionDeferredMerged     = "deferred.merged"
)

// Audit event categories group related actions.
const (
	CategoryChain    = "chainable.chain"
	CategoryLink     = "chainable.link"
	CategoryDeferred = "chainable.deferred"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceChain = "chain"
	ResourceLink  = "link"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionChainStarted,
		ActionChainCompleted,
		ActionChainFailed,
		ActionLinkStarted,
		ActionLinkCompleted,
		ActionLinkFailed,
		ActionDeferredRegistered,
		ActionDeferredMerged,
	}
}
