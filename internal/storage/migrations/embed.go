package migrations

import "embed"

// FS embeds the SQL migrations for the local cache database.
//
//go:embed *.sql
var FS embed.FS
