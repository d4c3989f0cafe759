package health

import (
	"context"
	"database/sql"
	"fmt"
)

// DatabaseChecker verifies the database connection is alive.
type DatabaseChecker struct {
	db *sql.DB
}

// NewDatabaseChecker creates a checker for the given database handle.
func NewDatabaseChecker(db *sql.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

// Name returns the checker name.
func (c *DatabaseChecker) Name() string {
	return "database"
}

// Check pings the database.
func (c *DatabaseChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
