// Package store provides the bridge's durable SQLite-backed state.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations (additive-only, embedded via the top-level
//     migrations package)
//   - Connection pooling and lifecycle management
//   - PublishedCache, the durable last-published-value table Connection
//     diffs every decoded attribute against before publishing (spec.md
//     §4.4's differential publish), so a bridge restart doesn't look like
//     every device property changed at once
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//   - Connection pooling reduces overhead
//
// Usage:
//
//	db, err := store.Open(store.Config{Path: cfg.Store.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	cache := store.NewPublishedCache(db)
//
// Migration Strategy:
//
// Migrations are additive-only to support safe rollbacks:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns
//   - Each migration file has both .up.sql and .down.sql
package store
