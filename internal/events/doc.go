// Package events carries notifications out of the matching engine.
//
// The orchestrator emits one GroupFormedEvent per committed group. Emitters
// fan the event out to registered handlers, such as the Redis stream
// publisher, without the orchestrator knowing who listens. Delivery happens
// strictly after the batch commit and its failures never affect the batch.
//
// The primary components are:
// - GroupFormedEvent: the notification payload for one formed group
// - EventHandler: interface for components that deliver events
// - EventEmitter: interface for components that emit events
// - InMemoryEventEmitter: synchronous fan-out to handlers
// - Dispatcher: asynchronous fan-out through a bounded queue and workers
package events
