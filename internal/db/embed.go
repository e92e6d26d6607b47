package db

import "embed"

// EmbedMigrations holds the embedded metastore schema migrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
