package enums

import "fmt"

// Permission is a fine-grained capability checked at the route layer.
//
// The set is closed: permissions are granted per role via RolePermissions
// and are not editable at runtime.
type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermManageProducts    Permission = "manage_products"
	PermManageShops       Permission = "manage_shops"
	PermCreateOrders      Permission = "create_orders"
	PermApproveOrders     Permission = "approve_orders"
	PermDeliverOrders     Permission = "deliver_orders"
	PermViewAllOrders     Permission = "view_all_orders"
	PermRecordPayments    Permission = "record_payments"
	PermVerifyPayments    Permission = "verify_payments"
	PermCreateReturns     Permission = "create_returns"
	PermApproveReturns    Permission = "approve_returns"
	PermViewCreditBills   Permission = "view_credit_bills"
	PermViewDashboard     Permission = "view_dashboard"
	PermViewNotifications Permission = "view_notifications"
)

var validPermissions = []Permission{
	PermManageUsers,
	PermManageProducts,
	PermManageShops,
	PermCreateOrders,
	PermApproveOrders,
	PermDeliverOrders,
	PermViewAllOrders,
	PermRecordPayments,
	PermVerifyPayments,
	PermCreateReturns,
	PermApproveReturns,
	PermViewCreditBills,
	PermViewDashboard,
	PermViewNotifications,
}

// RolePermissions maps each role to the permissions it holds. Admins hold
// every permission; sales reps hold the route-level subset.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: validPermissions,
	RoleSalesRep: {
		PermCreateOrders,
		PermDeliverOrders,
		PermRecordPayments,
		PermCreateReturns,
		PermViewCreditBills,
		PermViewNotifications,
	},
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// HasPermission reports whether the role grants the permission.
func HasPermission(role Role, perm Permission) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == perm {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
