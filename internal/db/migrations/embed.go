package migrations

import "embed"

// FS holds the SQL constraints applied after AutoMigrate.
//
//go:embed *.sql
var FS embed.FS
