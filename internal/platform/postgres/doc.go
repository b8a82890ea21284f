// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package: the member
// roster, match batches with their groups and memberships, and the embedded
// goose schema migrations.
package postgres
