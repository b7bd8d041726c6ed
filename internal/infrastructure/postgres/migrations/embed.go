// Package migrations holds the SQL schema for the commit audit log.
package migrations

import "embed"

// FS contains the up and down migrations.
//
//go:embed *.sql
var FS embed.FS
