package db

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/unklstewy/skyframe/pkg/config"
)

// maxReconnectDelay caps the exponential backoff between attempts.
const maxReconnectDelay = 60 * time.Second

// ConnectWithRetry connects to the database with exponential backoff, so a
// frame booting faster than its database does not die on startup.
// maxRetries of 0 retries forever.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++

		db, err := Connect(cfg)
		if err == nil {
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("[db] giving up after %d connection attempts", attempt)
			return nil, err
		}

		log.Printf("[db] connection attempt %d failed: %v (retry in %v)", attempt, err, delay)
		time.Sleep(delay)

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Healthy reports whether the connection can serve queries right now.
func (db *DB) Healthy(ctx context.Context) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Printf("[db] health check ping failed: %v", err)
		return false
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		log.Printf("[db] health check query failed: %v", err)
		return false
	}

	return result == 1
}

// connectionErrors are substrings that mark an error as transient at the
// transport layer rather than a query bug.
var connectionErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"EOF",
	"timeout",
}

// WithRetry runs a database operation, retrying only on connection-level
// failures. Query errors are returned immediately.
func WithRetry(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * time.Second
			log.Printf("[db] operation failed (attempt %d/%d): %v (retry in %v)",
				attempt+1, maxRetries+1, err, waitTime)
			time.Sleep(waitTime)
		}
	}

	return lastErr
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrors {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
