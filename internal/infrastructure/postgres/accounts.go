package postgres

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const accountColumns = `account_id, email, phone, password_hash, role, status, name, address,
    district, service_categories, google_sub, email_verified_at, phone_verified_at,
    created_at, updated_at`

// AccountRepo implements account persistence on PostgreSQL.
type AccountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create inserts a new account. Unique index violations are reported as
// *domain.ConflictError naming the field.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	cats := a.ServiceCategories
	if cats == nil {
		cats = []string{}
	}
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.AccountID, a.Email, a.Phone, a.PasswordHash, string(a.Role), string(a.Status), a.Name, a.Address,
		a.District, cats, a.GoogleSub, a.EmailVerifiedAt, a.PhoneVerifiedAt,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("insert account: %w", err)
	}
	switch pgErr.ConstraintName {
	case "accounts_email_key":
		return &domain.ConflictError{Field: "email"}
	case "accounts_phone_key":
		return &domain.ConflictError{Field: "phone"}
	}
	return fmt.Errorf("account exists: %w", domain.ErrConflict)
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.getBy(ctx, "account_id", accountID)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *AccountRepo) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.getBy(ctx, "phone", phone)
}

// getBy selects on one of the fixed column names above, never on caller input.
func (r *AccountRepo) getBy(ctx context.Context, column, value string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+column+` = $1`, value)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AccountRepo) MarkVerified(ctx context.Context, accountID string, ch domain.Channel, at time.Time) error {
	var q string
	switch ch {
	case domain.ChannelEmail:
		q = `UPDATE accounts SET email_verified_at = $2, updated_at = $2 WHERE account_id = $1`
	case domain.ChannelPhone:
		q = `UPDATE accounts SET phone_verified_at = $2, updated_at = $2 WHERE account_id = $1`
	default:
		return fmt.Errorf("unknown channel %q: %w", ch, domain.ErrBadRequest)
	}
	return r.exec(ctx, accountID, q, at.UTC())
}

func (r *AccountRepo) LinkGoogle(ctx context.Context, accountID, sub string) error {
	return r.exec(ctx, accountID,
		`UPDATE accounts SET google_sub = $2, updated_at = now() WHERE account_id = $1`, sub)
}

func (r *AccountRepo) exec(ctx context.Context, accountID, q string, arg any) error {
	cmd, err := r.db.Exec(ctx, q, accountID, arg)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return nil
}

// ScanPage returns accounts ordered by id. cursor is the base64-encoded last
// account_id of the previous page.
func (r *AccountRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error) {
	after := ""
	if cursor != "" {
		b, err := base64.RawURLEncoding.DecodeString(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		after = string(b)
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE account_id > $1 ORDER BY account_id LIMIT $2`, after, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, "", err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(accounts) == int(limit) {
		next = base64.RawURLEncoding.EncodeToString([]byte(accounts[len(accounts)-1].AccountID))
	}
	return accounts, next, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a      domain.Account
		role   string
		status string
	)
	if err := row.Scan(&a.AccountID, &a.Email, &a.Phone, &a.PasswordHash, &role, &status, &a.Name, &a.Address,
		&a.District, &a.ServiceCategories, &a.GoogleSub, &a.EmailVerifiedAt, &a.PhoneVerifiedAt,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.Status = domain.AccountStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
