package enums

import "strings"

// UserRole maps to the user_role enum in Postgres.
type UserRole string

const (
	RoleCustomer  UserRole = "CUSTOMER"
	RoleShopOwner UserRole = "SHOP_OWNER"
)

var validUserRoles = []UserRole{
	RoleCustomer,
	RoleShopOwner,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// NormalizeRole maps free-form client input onto the canonical roles.
// Matching ignores case and surrounding whitespace; "shop_owner" and "shop-owner"
// resolve to SHOP_OWNER and everything else, including "", resolves to CUSTOMER.
func NormalizeRole(value string) UserRole {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "shop_owner", "shopowner":
		return RoleShopOwner
	default:
		return RoleCustomer
	}
}
