package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

const userColumns = `id, name, email, password_hash, address, role, created_at, updated_at`

var userSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"address":    "address",
	"created_at": "created_at",
}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Address,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	return u, err
}

// GetByEmail retrieves a user by email address, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return u, err
}

// List returns a filtered, sorted page of users and the total match count.
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter, page, perPage int) ([]domain.User, int, error) {
	var where whereBuilder
	if filter.Role != "" {
		where.add("role = ?", filter.Role)
	}
	if filter.Search != "" {
		p := where.next(likePattern(filter.Search))
		where.conds = append(where.conds, fmt.Sprintf("(name ILIKE %[1]s OR email ILIKE %[1]s OR address ILIKE %[1]s)", p))
	}
	limit, offset := limitOffset(page, perPage)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM users
		%s
		%s
		LIMIT %s OFFSET %s`,
		userColumns, where.clause(),
		orderBy(userSortColumns, filter.SortBy, filter.Desc, "created_at DESC, id ASC"),
		where.next(limit), where.next(offset),
	)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	total := 0
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, total, nil
}

// UpdateProfile writes the user's name and address.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `UPDATE users SET name = $1, address = $2, updated_at = $3 WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, u.Name, u.Address, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// Delete removes a user. Owned stores and the user's ratings go with it via
// ON DELETE CASCADE; the stores the user rated are locked first and have
// their aggregates recomputed before commit.
func (r *UserRepository) Delete(ctx context.Context, id string) (*domain.UserDeletion, error) {
	res := &domain.UserDeletion{UserID: id}

	err := database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		rated, err := collectIDs(ctx, tx, `
			SELECT s.id FROM stores s
			WHERE s.owner_id <> $1
			  AND EXISTS (SELECT 1 FROM ratings r WHERE r.store_id = s.id AND r.user_id = $1)
			ORDER BY s.id
			FOR UPDATE OF s`, id)
		if err != nil {
			return fmt.Errorf("lock rated stores: %w", err)
		}

		res.DeletedStoreIDs, err = collectIDs(ctx, tx, `SELECT id FROM stores WHERE owner_id = $1 ORDER BY id`, id)
		if err != nil {
			return fmt.Errorf("list owned stores: %w", err)
		}

		ct, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("user", id)
		}

		for _, storeID := range rated {
			agg, err := recomputeStoreAggregate(ctx, tx, storeID)
			if err != nil {
				return err
			}
			res.Aggregates = append(res.Aggregates, agg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Address,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

func collectIDs(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return ids, nil
}
