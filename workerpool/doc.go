// Package workerpool runs a fixed set of model workers in lockstep.
//
// Each Worker is an actor owning one model shard. It blocks on its inbox,
// processes one request at a time and replies on the channel carried by the
// request. A stop message ends the loop. Failures and panics inside a
// request become a WorkerError reply and never kill the worker.
//
// A Pool broadcasts every request to all workers and returns the result of
// rank 0, the only authoritative rank. Only models that declare themselves
// sharded (ai.Sharded) run on the other ranks; replicas acknowledge there
// without embedding. When the pool has more than one
// worker, every worker joins a rendezvous group before loading its model.
package workerpool
