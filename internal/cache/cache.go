// Package cache stores rendered dashboards between rating writes.
package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache. Get reports a miss with found=false and no
// error.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	adminDashboardKey    = "dashboard:admin"
	customerDashboardKey = "dashboard:customer:"
	ownerDashboardKey    = "dashboard:owner:"
)

// AdminDashboardKey is the key of the admin overview.
func AdminDashboardKey() string { return adminDashboardKey }

// CustomerDashboardKey is the key of one user's customer dashboard.
func CustomerDashboardKey(userID string) string { return customerDashboardKey + userID }

// OwnerDashboardKey is the key of one owner's store-owner dashboard.
func OwnerDashboardKey(ownerID string) string { return ownerDashboardKey + ownerID }
