package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists profiles in PostgreSQL. Schema:
//
//	CREATE TABLE profiles (
//	    user_id      TEXT PRIMARY KEY,
//	    display_name TEXT NOT NULL,
//	    bio          TEXT NOT NULL DEFAULT '',
//	    phone        TEXT NOT NULL DEFAULT '',
//	    company      TEXT NOT NULL DEFAULT '',
//	    address      TEXT NOT NULL DEFAULT '',
//	    city         TEXT NOT NULL DEFAULT '',
//	    state        TEXT NOT NULL DEFAULT '',
//	    country      TEXT NOT NULL DEFAULT '',
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, p Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, bio, phone, company, address, city, state, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio          = EXCLUDED.bio,
			phone        = EXCLUDED.phone,
			company      = EXCLUDED.company,
			address      = EXCLUDED.address,
			city         = EXCLUDED.city,
			state        = EXCLUDED.state,
			country      = EXCLUDED.country,
			updated_at   = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.Bio, p.Phone, p.Company, p.Address, p.City, p.State, p.Country, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID string) (Profile, error) {
	query := `
		SELECT user_id, display_name, bio, phone, company, address, city, state, country, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`
	var p Profile
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Bio, &p.Phone, &p.Company, &p.Address, &p.City, &p.State, &p.Country, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
