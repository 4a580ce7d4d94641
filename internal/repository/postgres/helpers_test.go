package postgres

import (
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

const (
	storeID    = "5a0c7c55-2d5b-4d8e-9f2e-1c3b8f0d4a11"
	ownerID    = "0e3c1a2b-7f4d-4c9e-8b1a-6d2f3e4a5b6c"
	customerID = "9b8a7c6d-5e4f-4a3b-2c1d-0e9f8a7b6c5d"
	ratingID   = "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	return database.NewMockPool(t)
}

// q turns a literal SQL statement into an exact-match pattern.
func q(sql string) string { return regexp.QuoteMeta(sql) }

var userCols = []string{"id", "name", "email", "password_hash", "address", "role", "created_at", "updated_at"}

func userRows(extra ...string) *pgxmock.Rows {
	return pgxmock.NewRows(append(append([]string{}, userCols...), extra...))
}

func addUser(rows *pgxmock.Rows, u domain.User, extra ...any) *pgxmock.Rows {
	return rows.AddRow(append([]any{u.ID, u.Name, u.Email, u.PasswordHash, u.Address, u.Role, u.CreatedAt, u.UpdatedAt}, extra...)...)
}

func sampleUser() domain.User {
	return domain.User{
		ID:           customerID,
		Name:         "Priya Deshmukh Customer",
		Email:        "priya@example.com",
		PasswordHash: "$2a$10$hash",
		Address:      "12 MG Road, Pune",
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var storeCols = []string{
	"id", "name", "description", "address", "email", "phone", "owner_id", "is_active",
	"average_rating", "review_count", "created_at", "updated_at",
}

func storeRows(extra ...string) *pgxmock.Rows {
	return pgxmock.NewRows(append(append([]string{}, storeCols...), extra...))
}

func addStore(rows *pgxmock.Rows, s domain.Store, extra ...any) *pgxmock.Rows {
	return rows.AddRow(append([]any{
		s.ID, s.Name, s.Description, s.Address, s.Email, s.Phone, s.OwnerID, s.IsActive,
		s.AverageRating, s.ReviewCount, s.CreatedAt, s.UpdatedAt,
	}, extra...)...)
}

func sampleStore() domain.Store {
	return domain.Store{
		ID:            storeID,
		Name:          "Sharma Sweets",
		Description:   "Traditional sweets",
		Address:       "4 FC Road, Pune",
		Email:         "hello@sharmasweets.in",
		Phone:         "+91 20 5555 0101",
		OwnerID:       ownerID,
		IsActive:      true,
		AverageRating: 4.7,
		ReviewCount:   3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var ratingCols = []string{
	"id", "store_id", "user_id", "value", "comment", "sentiment",
	"helpful_count", "verified", "created_at", "updated_at",
}

func ratingRows(extra ...string) *pgxmock.Rows {
	return pgxmock.NewRows(append(append([]string{}, ratingCols...), extra...))
}

func addRating(rows *pgxmock.Rows, r domain.Rating, extra ...any) *pgxmock.Rows {
	return rows.AddRow(append([]any{
		r.ID, r.StoreID, r.UserID, r.Value, r.Comment, r.Sentiment,
		r.HelpfulCount, r.Verified, r.CreatedAt, r.UpdatedAt,
	}, extra...)...)
}

func sampleRating() domain.Rating {
	return domain.Rating{
		ID:        ratingID,
		StoreID:   storeID,
		UserID:    customerID,
		Value:     5,
		Comment:   "great jalebi",
		Sentiment: domain.SentimentPositive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func photoRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"rating_id", "id", "url"})
}

// expectLockStore expects the store row lock that opens every rating write.
func expectLockStore(mock pgxmock.PgxPoolIface, id, owner string) {
	mock.ExpectQuery(q(lockStoreSQL)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id"}).AddRow(owner))
}

// expectRecompute expects the aggregate recompute for a store whose ratings
// sum to sum over count rows, written back as avg.
func expectRecompute(mock pgxmock.PgxPoolIface, id string, sum, count int64, avg float64) {
	mock.ExpectQuery(q(sumRatingsSQL)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"sum", "count"}).AddRow(sum, count))
	mock.ExpectExec(q(writeAggregateSQL)).
		WithArgs(avg, int(count), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
}
