// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// The tables are created by the migrations in db/migrations; this package
// never auto-migrates.
package gorm
