package domain

import "time"

// Store is a rated business. AverageRating and ReviewCount are a projection
// of the store's ratings and are only written by the aggregate recompute.
type Store struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	OwnerID       string    `json:"owner_id"`
	IsActive      bool      `json:"is_active"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	OwnerName     string    `json:"owner_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StoreFilter narrows store listings.
type StoreFilter struct {
	Search     string
	OwnerID    string
	ActiveOnly bool
	SortBy     string
	Desc       bool
}

// StoreSearchQuery is a full-text store search.
type StoreSearchQuery struct {
	Text      string
	MinRating float64
	Page      int
	PerPage   int
}

// StoreSearchResult is one page of search hits.
type StoreSearchResult struct {
	Stores []Store
	Total  int
}
