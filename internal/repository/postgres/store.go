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

const storeColumns = `id, name, description, address, email, phone, owner_id, is_active,
		average_rating, review_count, created_at, updated_at`

var storeSortColumns = map[string]string{
	"name":           "name",
	"address":        "address",
	"email":          "email",
	"average_rating": "average_rating",
	"rating":         "average_rating",
	"review_count":   "review_count",
	"created_at":     "created_at",
}

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	pool database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(pool database.DBTX) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// Create inserts a new store. Its aggregate starts at zero.
func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	query := `
		INSERT INTO stores (id, name, description, address, email, phone, owner_id, is_active,
		                    average_rating, review_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Description,
		s.Address,
		s.Email,
		s.Phone,
		s.OwnerID,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err, "") {
			return apperrors.InvalidInput("store owner does not exist")
		}
		return fmt.Errorf("insert store: %w", err)
	}

	return nil
}

// GetByID retrieves a store by its ID.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	var s domain.Store
	if err := scanStore(r.pool.QueryRow(ctx, query, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", id)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}

	return &s, nil
}

// List returns a filtered, sorted page of stores and the total match count.
func (r *StoreRepository) List(ctx context.Context, filter domain.StoreFilter, page, perPage int) ([]domain.Store, int, error) {
	var where whereBuilder
	if filter.OwnerID != "" {
		where.add("owner_id = ?", filter.OwnerID)
	}
	if filter.ActiveOnly {
		where.add("is_active = TRUE")
	}
	if filter.Search != "" {
		p := where.next(likePattern(filter.Search))
		where.conds = append(where.conds, fmt.Sprintf("(name ILIKE %[1]s OR address ILIKE %[1]s)", p))
	}
	limit, offset := limitOffset(page, perPage)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM stores
		%s
		%s
		LIMIT %s OFFSET %s`,
		storeColumns, where.clause(),
		orderBy(storeSortColumns, filter.SortBy, filter.Desc, "name ASC, id ASC"),
		where.next(limit), where.next(offset),
	)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	stores := []domain.Store{}
	total := 0
	for rows.Next() {
		var s domain.Store
		if err := scanStore(rows, &s, &total); err != nil {
			return nil, 0, fmt.Errorf("scan store row: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate store rows: %w", err)
	}

	return stores, total, nil
}

// ListAll streams every store to fn in id order. Iteration stops at the first
// error fn returns.
func (r *StoreRepository) ListAll(ctx context.Context, fn func(domain.Store) error) error {
	rows, err := r.pool.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list all stores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Store
		if err := scanStore(rows, &s); err != nil {
			return fmt.Errorf("scan store row: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Update writes the store's descriptive fields.
func (r *StoreRepository) Update(ctx context.Context, s *domain.Store) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE stores
		SET name = $1, description = $2, address = $3, email = $4, phone = $5, is_active = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.pool.Exec(ctx, query,
		s.Name,
		s.Description,
		s.Address,
		s.Email,
		s.Phone,
		s.IsActive,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store", s.ID)
	}

	return nil
}

// Delete removes a store. Ratings, photos and helpful marks cascade.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store", id)
	}

	return nil
}

func scanStore(row pgx.Row, s *domain.Store, extra ...any) error {
	dest := append([]any{
		&s.ID,
		&s.Name,
		&s.Description,
		&s.Address,
		&s.Email,
		&s.Phone,
		&s.OwnerID,
		&s.IsActive,
		&s.AverageRating,
		&s.ReviewCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	}, extra...)
	return row.Scan(dest...)
}
