// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using it are skipped unless HUDDLE_TEST_DATABASE_URL (or
// DATABASE_URL) is set. The schema is created with the same embedded goose
// migrations the server applies, so integration tests exercise the
// production schema.
//
//	db := testdb.Open(t)
//	testdb.Reset(t, db)
package testdb
