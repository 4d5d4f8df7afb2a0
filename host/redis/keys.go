package redis

// Redis key naming conventions for chainable data.
// All keys are prefixed with "chainable:" to avoid collisions.

const keyPrefix = "chainable:"

// queueKey returns the List key for a queue: chainable:queue:{name}.
// Envelopes are LPUSHed and RPOPped, so each queue is FIFO.
func queueKey(name string) string { return keyPrefix + "queue:" + name }

// timersKey is the Sorted Set holding timer envelopes, scored by their
// fire time in unix milliseconds. The promoter moves due members onto
// their queue list.
const timersKey = keyPrefix + "timers"
