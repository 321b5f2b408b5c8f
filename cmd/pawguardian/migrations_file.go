//go:build !embed_migrations

package main

import (
	"io/fs"
	"os"
)

const defaultMigrationsPath = "db/migrations"

func migrationsPath() string {
	if p := os.Getenv("PAWGUARDIAN_MIGRATIONS_PATH"); p != "" {
		return p
	}
	return defaultMigrationsPath
}

// migrationSource serves the SQL files from the working tree, so schema
// changes are picked up without rebuilding
func migrationSource() (fs.FS, string, error) {
	path := migrationsPath()
	return os.DirFS(path), "file://" + path, nil
}
