package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists devices in PostgreSQL. Schema:
//
//	CREATE TABLE devices (
//	    user_id       TEXT NOT NULL,
//	    device_id     TEXT NOT NULL,
//	    name          TEXT NOT NULL,
//	    platform      TEXT NOT NULL DEFAULT '',
//	    browser       TEXT NOT NULL DEFAULT '',
//	    registered_at TIMESTAMPTZ NOT NULL,
//	    last_active   TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (user_id, device_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, d Device) error {
	query := `
		INSERT INTO devices (user_id, device_id, name, platform, browser, registered_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			name        = EXCLUDED.name,
			last_active = EXCLUDED.last_active
	`
	_, err := s.db.ExecContext(ctx, query, d.UserID, d.DeviceID, d.Name, d.Platform, d.Browser, d.RegisteredAt, d.LastActive)
	if err != nil {
		return fmt.Errorf("save device: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID, deviceID string) (Device, error) {
	query := `
		SELECT user_id, device_id, name, platform, browser, registered_at, last_active
		FROM devices WHERE user_id = $1 AND device_id = $2
	`
	var d Device
	err := s.db.QueryRowContext(ctx, query, userID, deviceID).Scan(
		&d.UserID, &d.DeviceID, &d.Name, &d.Platform, &d.Browser, &d.RegisteredAt, &d.LastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return Device{}, ErrNotFound
	}
	if err != nil {
		return Device{}, fmt.Errorf("find device: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Device, error) {
	query := `
		SELECT user_id, device_id, name, platform, browser, registered_at, last_active
		FROM devices WHERE user_id = $1 ORDER BY registered_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.UserID, &d.DeviceID, &d.Name, &d.Platform, &d.Browser, &d.RegisteredAt, &d.LastActive); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, deviceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE user_id = $1 AND device_id = $2`, userID, deviceID)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
