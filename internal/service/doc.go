// Package service provides application-level services layered on the
// matching engine's output.
//
// MembershipService is the per-member surface: a member views the groups
// they were placed in, joins a group or passes on it. Each state change runs
// in a single database transaction via store.RunInTransaction so a group's
// status always agrees with its memberships. Matching cycles themselves are
// run by the cycle subpackage.
package service
