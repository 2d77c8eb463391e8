// Package migrations embeds the SQL migration files and applies them at
// startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
