// Package migrations embeds the PostgreSQL schema for the clinic workflow.
package migrations

import "embed"

// FS holds the numbered migration files.
//
//go:embed *.sql
var FS embed.FS
