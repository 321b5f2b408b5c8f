// Package db embeds the SQL migrations for production builds.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
