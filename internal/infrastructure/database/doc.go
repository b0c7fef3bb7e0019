// Package database provides SQLite connectivity for huekeep's run history.
//
// This package manages:
//   - Database connection with WAL mode and busy timeout
//   - Additive schema migrations from an embedded filesystem
//   - Connection lifecycle (huekeep is a single-process CLI, so the pool
//     is pinned to one connection)
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
