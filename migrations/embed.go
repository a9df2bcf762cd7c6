// Package migrations embeds the goose SQL migrations for the Postgres
// document store. The server applies them on start and the pgstore tests
// apply them in TestMain.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
