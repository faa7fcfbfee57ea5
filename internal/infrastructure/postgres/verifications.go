package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerificationRepo implements the one-time code store on PostgreSQL.
type VerificationRepo struct {
	db *pgxpool.Pool
}

func NewVerificationRepo(db *pgxpool.Pool) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Replace deletes every code for the identifier and inserts t in one
// transaction. The advisory lock serialises concurrent issuers for the same
// identifier so two inserts cannot both survive.
func (r *VerificationRepo) Replace(ctx context.Context, t *domain.VerificationToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.Identifier); err != nil {
		return fmt.Errorf("lock identifier: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM verification_tokens WHERE identifier = $1`, t.Identifier); err != nil {
		return fmt.Errorf("delete previous codes: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO verification_tokens (identifier, code, expires_at) VALUES ($1, $2, $3)`,
		t.Identifier, t.Code, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert code: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *VerificationRepo) Consume(ctx context.Context, identifier, code string) (*domain.VerificationToken, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM verification_tokens
        WHERE identifier = $1 AND code = $2
        RETURNING identifier, code, expires_at`, identifier, code)
	return scanToken(row)
}

func (r *VerificationRepo) Find(ctx context.Context, identifier, code string) (*domain.VerificationToken, error) {
	row := r.db.QueryRow(ctx, `SELECT identifier, code, expires_at FROM verification_tokens
        WHERE identifier = $1 AND code = $2`, identifier, code)
	return scanToken(row)
}

func (r *VerificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM verification_tokens WHERE expires_at < $1`, now.Unix())
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := row.Scan(&t.Identifier, &t.Code, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
