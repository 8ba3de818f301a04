package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists subscriptions in PostgreSQL, written by the billing
// webhook consumer and read here. Schema:
//
//	CREATE TABLE subscriptions (
//	    id                 TEXT NOT NULL,
//	    owner_id           TEXT PRIMARY KEY,
//	    plan_key           TEXT NOT NULL,
//	    status             TEXT NOT NULL,
//	    current_period_end TIMESTAMPTZ NOT NULL,
//	    created_at         TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, sub Subscription) error {
	query := `
		INSERT INTO subscriptions (id, owner_id, plan_key, status, current_period_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			id                 = EXCLUDED.id,
			plan_key           = EXCLUDED.plan_key,
			status             = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end
	`
	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.OwnerID, sub.PlanKey, sub.Status, sub.CurrentPeriodEnd, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByOwner(ctx context.Context, ownerID string) (Subscription, error) {
	query := `
		SELECT id, owner_id, plan_key, status, current_period_end, created_at
		FROM subscriptions WHERE owner_id = $1
	`
	var sub Subscription
	err := s.db.QueryRowContext(ctx, query, ownerID).Scan(
		&sub.ID, &sub.OwnerID, &sub.PlanKey, &sub.Status, &sub.CurrentPeriodEnd, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("find subscription: %w", err)
	}
	return sub, nil
}
