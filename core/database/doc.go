// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure postgres, mysql or sqlite connections from the
// application's configuration. The SQL primary store (core/store/sqlstore)
// and the schema check of the migrate command are built on it.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the
// server within the configured timeout. Callers treat a failed connection
// as an unavailable primary rather than a fatal error.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table so the expected press_passes
// columns can be verified before the service starts.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Primary store unavailable", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "press_passes")
package database
