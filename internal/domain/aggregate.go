package domain

import "github.com/shopspring/decimal"

// StoreAggregate is a store's derived rating summary.
type StoreAggregate struct {
	StoreID       string  `json:"store_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// NewStoreAggregate computes the aggregate from the sum and count of a
// store's rating values. The average is rounded half-up to one decimal
// place; a store without ratings averages 0.
func NewStoreAggregate(storeID string, sum, count int64) StoreAggregate {
	agg := StoreAggregate{StoreID: storeID, ReviewCount: int(count)}
	if count <= 0 {
		agg.ReviewCount = 0
		return agg
	}
	avg := decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 8).Round(1)
	agg.AverageRating = avg.InexactFloat64()
	return agg
}

// AggregateOf recomputes from individual values. Used by tests and the
// recompute command to cross-check stored aggregates.
func AggregateOf(storeID string, values []int) StoreAggregate {
	var sum int64
	for _, v := range values {
		sum += int64(v)
	}
	return NewStoreAggregate(storeID, sum, int64(len(values)))
}
