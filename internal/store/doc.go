// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the matching engine and services: the member roster, match batches with
// their groups, and post-commit group membership updates.
package store
