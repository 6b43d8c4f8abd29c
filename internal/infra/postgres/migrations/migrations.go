package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for collections and submissions.
var Migrations = migrate.NewMigrations()
