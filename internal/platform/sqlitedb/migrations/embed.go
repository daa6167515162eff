// Package migrations holds the embedded SQLite schema.
package migrations

import "embed"

// FS contains the ordered .sql files.
//
//go:embed *.sql
var FS embed.FS
