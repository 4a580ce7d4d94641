// Package migrations embeds the SQL schema applied at startup and by
// ratingctl migrate.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
