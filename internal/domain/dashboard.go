package domain

import "time"

// Dashboard list sizes and windows.
const (
	DashboardRecentLimit    = 10
	DashboardTopStoresLimit = 10
	DashboardFavoritesLimit = 5
	RecentActivityDays      = 7
	GrowthWindowDays        = 30
	TrendDays               = 30
)

// AdminDashboard is the global overview.
type AdminDashboard struct {
	Stats          AdminStats     `json:"stats"`
	RecentUsers    []User         `json:"recent_users"`
	RecentStores   []Store        `json:"recent_stores"`
	TopStores      []Store        `json:"top_rated_stores"`
	RecentActivity RecentActivity `json:"recent_activity"`
}

// AdminStats holds global counts.
type AdminStats struct {
	TotalUsers       int `json:"total_users"`
	TotalStores      int `json:"total_stores"`
	TotalRatings     int `json:"total_ratings"`
	TotalStoreOwners int `json:"total_store_owners"`
	TotalPhotos      int `json:"total_photos"`
}

// RecentActivity holds rolling-window counts.
type RecentActivity struct {
	RatingsLastWeek    int `json:"ratings_last_week"`
	NewUsersLastMonth  int `json:"new_users_last_month"`
	NewStoresLastMonth int `json:"new_stores_last_month"`
}

// OwnerDashboard covers every store owned by one user.
type OwnerDashboard struct {
	Stores        []OwnerStoreStats `json:"stores"`
	RecentRatings []Rating          `json:"recent_ratings"`
	Trend         []TrendPoint      `json:"rating_trends"`
}

// OwnerStoreStats is one owned store with its rating breakdown.
type OwnerStoreStats struct {
	Store           Store   `json:"store"`
	TotalRatings    int     `json:"total_ratings"`
	AverageRating   float64 `json:"average_rating"`
	RatingsLastWeek int     `json:"ratings_last_week"`
	PositiveRatings int     `json:"positive_ratings"`
	NegativeRatings int     `json:"negative_ratings"`
	TotalPhotos     int     `json:"total_photos"`
}

// TrendPoint is one day of the owner's rating trend.
type TrendPoint struct {
	Date          time.Time `json:"date"`
	RatingCount   int       `json:"rating_count"`
	AverageRating float64   `json:"average_rating"`
}

// CustomerDashboard summarises one user's activity.
type CustomerDashboard struct {
	Stats          CustomerStats   `json:"stats"`
	RecentRatings  []Rating        `json:"recent_ratings"`
	FavoriteStores []FavoriteStore `json:"favorite_stores"`
	Contributions  Contributions   `json:"contributions"`
}

// CustomerStats holds the user's rating counts.
type CustomerStats struct {
	TotalRatings         int     `json:"total_ratings"`
	RatedStores          int     `json:"rated_stores"`
	AverageRatingGiven   float64 `json:"average_rating_given"`
	HelpfulMarksReceived int     `json:"helpful_marks_received"`
}

// FavoriteStore is a store the user rated highly.
type FavoriteStore struct {
	Store      Store `json:"store"`
	UserRating int   `json:"user_rating"`
}

// Contributions counts what the user added beyond ratings.
type Contributions struct {
	TotalPhotos       int `json:"total_photos"`
	HelpfulMarksGiven int `json:"helpful_marks_given"`
}
