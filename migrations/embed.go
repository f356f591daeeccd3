// Package migrations holds the versioned schema for the engine database.
package migrations

import "embed"

// FS contains every *.sql migration, applied in version order by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
