// Package migrations embeds SQL migrations for the PostgreSQL session store.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
