// Package migrations embeds the SQL schema migrations for the plan store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
