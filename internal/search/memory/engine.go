package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/search"
)

// Engine is an in-memory search.Engine with substring matching on name,
// address and description. Safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	stores map[string]domain.Store
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{stores: make(map[string]domain.Store)}
}

func (e *Engine) Index(_ context.Context, store *domain.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stores[store.ID] = *store
	return nil
}

func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.stores, id)
	return nil
}

func (e *Engine) BulkIndex(_ context.Context, stores []domain.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range stores {
		e.stores[stores[i].ID] = stores[i]
	}
	return nil
}

// Search matches every whitespace-separated term of the query. Results are
// ordered by average rating, then review count, then name.
func (e *Engine) Search(_ context.Context, query domain.StoreSearchQuery) (*domain.StoreSearchResult, error) {
	terms := strings.Fields(strings.ToLower(query.Text))

	e.mu.RLock()
	matched := make([]domain.Store, 0)
	for _, s := range e.stores {
		if matches(s, terms, query.MinRating) {
			matched = append(matched, s)
		}
	}
	e.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.Name < b.Name
	})

	page, perPage := search.NormalizePage(query.Page, query.PerPage)
	total := len(matched)
	offset := min((page-1)*perPage, total)
	end := min(offset+perPage, total)

	return &domain.StoreSearchResult{Stores: matched[offset:end], Total: total}, nil
}

func matches(s domain.Store, terms []string, minRating float64) bool {
	if !s.IsActive || s.AverageRating < minRating {
		return false
	}
	haystack := strings.ToLower(s.Name + " " + s.Address + " " + s.Description)
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
