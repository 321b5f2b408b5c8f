// Package db provides database connection utilities for PawGuardian.
//
// Monitoring runs are persisted to PostgreSQL through GORM when DATABASE_URL
// is set. Without it the server keeps runs in memory.
//
// # Connection
//
//	database, err := db.Connect(ctx, db.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Set PAWGUARDIAN_LOG_LEVEL=debug to see the SQL GORM issues.
package db
