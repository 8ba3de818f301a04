package organisation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists organisations in PostgreSQL. Schema:
//
//	CREATE TABLE organisations (
//	    id         TEXT PRIMARY KEY,
//	    name       TEXT NOT NULL,
//	    owner_id   TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE organisation_members (
//	    org_id    TEXT NOT NULL REFERENCES organisations(id) ON DELETE CASCADE,
//	    user_id   TEXT NOT NULL UNIQUE,
//	    role      TEXT NOT NULL,
//	    joined_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (org_id, user_id)
//	);
//
//	CREATE TABLE organisation_invitations (
//	    id         TEXT PRIMARY KEY,
//	    org_id     TEXT NOT NULL REFERENCES organisations(id) ON DELETE CASCADE,
//	    email      TEXT NOT NULL,
//	    role       TEXT NOT NULL,
//	    token_hash TEXT NOT NULL,
//	    invited_by TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (org_id, email)
//	);
//
// The UNIQUE constraint on organisation_members.user_id enforces the
// one-organisation-per-user rule at the storage layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateOrganisation(ctx context.Context, org Organisation, owner Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create organisation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO organisations (id, name, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		org.ID, org.Name, org.OwnerID, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create organisation: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO organisation_members (org_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		owner.OrgID, owner.UserID, owner.Role, owner.JoinedAt)
	if err != nil {
		return fmt.Errorf("create organisation owner: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create organisation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrganisation(ctx context.Context, orgID string) (Organisation, error) {
	var org Organisation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM organisations WHERE id = $1`, orgID).
		Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Organisation{}, ErrNotFound
	}
	if err != nil {
		return Organisation{}, fmt.Errorf("get organisation: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) UpdateOrganisation(ctx context.Context, org Organisation) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE organisations SET name = $2, updated_at = $3 WHERE id = $1`,
		org.ID, org.Name, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update organisation: %w", err)
	}
	return requireAffected(res, "update organisation")
}

func (s *PostgresStore) DeleteOrganisation(ctx context.Context, orgID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM organisations WHERE id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("delete organisation: %w", err)
	}
	return requireAffected(res, "delete organisation")
}

func (s *PostgresStore) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT org_id, user_id, role, joined_at FROM organisation_members WHERE org_id = $1 ORDER BY joined_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *PostgresStore) MemberOf(ctx context.Context, userID string) (Member, error) {
	var m Member
	err := s.db.QueryRowContext(ctx,
		`SELECT org_id, user_id, role, joined_at FROM organisation_members WHERE user_id = $1`, userID).
		Scan(&m.OrgID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("member of: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) AddMember(ctx context.Context, member Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organisation_members (org_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		member.OrgID, member.UserID, member.Role, member.JoinedAt)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, orgID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM organisation_members WHERE org_id = $1 AND user_id = $2`, orgID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return requireAffected(res, "remove member")
}

func (s *PostgresStore) UpdateMemberRole(ctx context.Context, orgID, userID string, role Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE organisation_members SET role = $3 WHERE org_id = $1 AND user_id = $2`, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return requireAffected(res, "update member role")
}

func (s *PostgresStore) CreateInvitation(ctx context.Context, inv Invitation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organisation_invitations (id, org_id, email, role, token_hash, invited_by, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.OrgID, inv.Email, inv.Role, inv.TokenHash, inv.InvitedBy, inv.CreatedAt, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInvitation(ctx context.Context, invID string) (Invitation, error) {
	var inv Invitation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, email, role, token_hash, invited_by, created_at, expires_at
		 FROM organisation_invitations WHERE id = $1`, invID).
		Scan(&inv.ID, &inv.OrgID, &inv.Email, &inv.Role, &inv.TokenHash, &inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Invitation{}, ErrNotFound
	}
	if err != nil {
		return Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func (s *PostgresStore) InvitationByEmail(ctx context.Context, orgID, email string) (Invitation, bool, error) {
	var inv Invitation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, email, role, token_hash, invited_by, created_at, expires_at
		 FROM organisation_invitations WHERE org_id = $1 AND LOWER(email) = LOWER($2)`, orgID, email).
		Scan(&inv.ID, &inv.OrgID, &inv.Email, &inv.Role, &inv.TokenHash, &inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Invitation{}, false, nil
	}
	if err != nil {
		return Invitation{}, false, fmt.Errorf("invitation by email: %w", err)
	}
	return inv, true, nil
}

func (s *PostgresStore) DeleteInvitation(ctx context.Context, invID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM organisation_invitations WHERE id = $1`, invID)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return requireAffected(res, "delete invitation")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
