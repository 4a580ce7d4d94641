package domain

import "fmt"

// Role is the closed set of user roles. Roles never change after creation.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStoreOwner Role = "store_owner"
	RoleAdmin      Role = "admin"
)

// ValidRoles returns every role.
func ValidRoles() []Role {
	return []Role{RoleCustomer, RoleStoreOwner, RoleAdmin}
}

// ParseRole converts s to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStoreOwner, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Capability names an action gated by role.
type Capability int

const (
	CapManageStores Capability = iota + 1
	CapRateStores
	CapManageUsers
	CapModerateRatings
	CapViewAdminDashboard
	CapViewOwnerDashboard
	CapViewCustomerDashboard
	CapManageAnyStore
)

var capabilities = map[Role]map[Capability]bool{
	RoleCustomer: {
		CapRateStores:            true,
		CapViewCustomerDashboard: true,
	},
	RoleStoreOwner: {
		CapManageStores:       true,
		CapViewOwnerDashboard: true,
	},
	RoleAdmin: {
		CapManageStores:          true,
		CapRateStores:            true,
		CapManageUsers:           true,
		CapModerateRatings:       true,
		CapViewAdminDashboard:    true,
		CapViewOwnerDashboard:    true,
		CapViewCustomerDashboard: true,
		CapManageAnyStore:        true,
	},
}

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

// Can reports whether p holds capability c. Ownership of individual stores
// and ratings is checked separately by the services.
func Can(p Principal, c Capability) bool {
	return capabilities[p.Role][c]
}
