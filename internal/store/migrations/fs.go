// Package migrations embeds the SQL schema migrations for wahook.db.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
