// Package migrations embeds the goose migrations of the run history
// database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
