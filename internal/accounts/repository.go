package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-id/meridian/internal/platform/db"
	"github.com/meridian-id/meridian/internal/platform/httpx"
)

// Repository defines persistence operations for account records. No
// transactional or concurrency guarantees are assumed beyond single-statement
// atomicity; concurrent writes to the same account are last-write-wins.
type Repository interface {
	FindOne(ctx context.Context, c Criterion) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a Account) error
	Save(ctx context.Context, a Account) error
	List(ctx context.Context, limit, offset int) ([]Account, int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, email, first_name, last_name, phone_number, password_hash,
	is_active, user_type, attempts_left, time_left, created_at, updated_at`

// lookup columns allowed in a criterion; guards against arbitrary field
// names reaching the query text.
var criterionColumns = map[string]string{
	"id":    "id",
	"email": "email",
}

// FindOne fetches a single account by the criterion's field.
func (r *PGRepository) FindOne(ctx context.Context, c Criterion) (*Account, error) {
	column, ok := criterionColumns[c.Field]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported lookup field %q", httpx.ErrInvalidArgument, c.Field)
	}
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM accounts WHERE %s = $1`, accountColumns, column), c.Value)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// FindByID fetches an account by its identifier.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	return r.FindOne(ctx, Criterion{Field: "id", Value: id})
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, a Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, first_name, last_name, phone_number, password_hash,
			is_active, user_type, attempts_left, time_left, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		a.ID, a.Email, a.FirstName, a.LastName, textOrNull(a.PhoneNumber), a.PasswordHash,
		a.IsActive, string(a.UserType), a.AttemptsLeft, timestampOrNull(a.TimeLeft),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", httpx.ErrConflict)
		}
		return err
	}
	return nil
}

// Save persists the full state of an existing account.
func (r *PGRepository) Save(ctx context.Context, a Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET email = $2, first_name = $3, last_name = $4, phone_number = $5,
			password_hash = $6, is_active = $7, user_type = $8,
			attempts_left = $9, time_left = $10, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Email, a.FirstName, a.LastName, textOrNull(a.PhoneNumber),
		a.PasswordHash, a.IsActive, string(a.UserType), a.AttemptsLeft, timestampOrNull(a.TimeLeft),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// List returns accounts ordered by creation time, newest first. The count and
// the page run in one repeatable-read transaction so the total matches the
// snapshot the page was taken from.
func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]Account, int, error) {
	var (
		total    int
		accounts []Account
	)
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := db.WithTxOpts(ctx, r.pool, opts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, fmt.Sprintf(`SELECT %s FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, accountColumns), limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			account, err := scanAccount(rows)
			if err != nil {
				return err
			}
			accounts = append(accounts, *account)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a         Account
		phone     pgtype.Text
		userType  string
		timeLeft  pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &phone, &a.PasswordHash,
		&a.IsActive, &userType, &a.AttemptsLeft, &timeLeft, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		val := phone.String
		a.PhoneNumber = &val
	}
	a.UserType = UserType(userType)
	if timeLeft.Valid {
		val := timeLeft.Time
		a.TimeLeft = &val
	}
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return &a, nil
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func timestampOrNull(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
