// Package cycle runs weekly matching cycles.
//
// BatchOrchestrator drives one cycle from roster snapshot to committed
// batch: it filters the roster, assembles groups, writes the batch, its
// groups, memberships and the members' last-matched timestamps in a single
// unit of work, and only then announces the new groups. A cycle date is
// processed at most once; a failed cycle leaves nothing behind and can be
// retried with the same date.
package cycle
