// Package matching implements the pure parts of a matching cycle: deciding
// who is eligible, scoring pairs of members, and assembling groups.
//
// Nothing in this package performs I/O. Given the same roster, reference
// time and parameters, every function returns the same result, which is what
// makes a failed cycle safe to retry.
package matching
