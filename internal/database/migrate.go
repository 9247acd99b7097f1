package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(36)  NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(255) NOT NULL DEFAULT '',
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		provider      VARCHAR(16)  NOT NULL DEFAULT 'credentials',
		image         VARCHAR(512) NOT NULL DEFAULT '',
		created_at    DATETIME(3)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    VARCHAR(36)  NOT NULL,
		token_hash CHAR(64)     NOT NULL UNIQUE,
		expires_at DATETIME     NOT NULL,
		revoked_at DATETIME     NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		seq          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT UNIQUE,
		id           VARCHAR(36)   NOT NULL PRIMARY KEY,
		title        VARCHAR(255)  NOT NULL,
		description  TEXT          NOT NULL,
		category     VARCHAR(64)   NOT NULL,
		city         VARCHAR(128)  NOT NULL,
		address      VARCHAR(255)  NOT NULL DEFAULT '',
		image_url    VARCHAR(512)  NOT NULL DEFAULT '',
		starts_at    DATETIME(3)   NOT NULL,
		capacity     INT           NOT NULL,
		booked_seats INT           NOT NULL DEFAULT 0,
		price        DECIMAL(10,2) NOT NULL DEFAULT 0,
		organizer    VARCHAR(64)   NOT NULL DEFAULT '',
		created_at   DATETIME(3)   NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id             VARCHAR(36)   NOT NULL PRIMARY KEY,
		event_id       VARCHAR(36)   NOT NULL,
		user_id        VARCHAR(36)   NOT NULL,
		seats          INT           NOT NULL,
		total_price    DECIMAL(12,2) NOT NULL,
		status         VARCHAR(16)   NOT NULL,
		payment_status VARCHAR(16)   NOT NULL,
		created_at     DATETIME(3)   NOT NULL,
		updated_at     DATETIME(3)   NOT NULL,
		INDEX idx_bookings_user (user_id),
		INDEX idx_bookings_event (event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables used by the MySQL stores when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
