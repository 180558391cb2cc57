// Package migrations holds the SQLite schema applied on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
