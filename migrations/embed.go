// Package migrations embeds the SQL files that build the local mpylon database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
