package postgres

import "embed"

// MigrationsDir is the directory of the embedded goose migrations within
// Migrations.
const MigrationsDir = "migrations"

// Migrations holds the SQL schema migrations, applied with goose.
//
//go:embed migrations/*.sql
var Migrations embed.FS
