// Package search indexes stores for full-text lookup by name, address and
// description.
package search

import (
	"context"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
)

// Engine defines the interface for indexing and searching stores.
type Engine interface {
	// Index adds or updates a single store.
	Index(ctx context.Context, store *domain.Store) error

	// Delete removes a store from the index. Deleting an absent store is not
	// an error.
	Delete(ctx context.Context, id string) error

	// Search returns the active stores matching query.
	Search(ctx context.Context, query domain.StoreSearchQuery) (*domain.StoreSearchResult, error)

	// BulkIndex adds or updates many stores at once.
	BulkIndex(ctx context.Context, stores []domain.Store) error
}

// Page bounds shared by every engine.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// NormalizePage clamps page and perPage into range.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
