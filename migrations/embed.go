// Package migrations embeds the SQL migration files that define the CRM
// schema.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
