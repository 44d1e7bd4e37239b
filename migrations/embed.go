// Package migrations embeds the versioned SQL schema of the six core tables.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
