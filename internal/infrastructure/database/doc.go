// Package database provides the SQLite layer under Foyer Core's
// repositories: the mode catalogue, the activation history, and the
// device registry.
//
// This package manages:
//   - The connection (WAL mode, foreign keys, busy timeout)
//   - Embedded schema migrations, applied on every boot
//   - The health probe behind the /health "database" component
//
// The pool is pinned to one connection. SQLite permits a single
// writer, and Foyer's writers (mode activation, registry edits) are
// rare and small, so one serialised connection avoids lock-timeout
// churn while WAL keeps API reads flowing.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql (with a
// matching .down.sql) and embedded by the migrations package at the
// repo root. Migrations are additive-only: new columns arrive nullable
// or with defaults so an older binary can still read a newer file.
package database
