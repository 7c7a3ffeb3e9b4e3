// Package schemas provides embedded SQL migration files.
package schemas

import "embed"

// Migrations contains the SQL migration files, one directory per driver.
//
//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var Migrations embed.FS
