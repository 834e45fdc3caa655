package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminsHoldEveryPermission(t *testing.T) {
	for _, perm := range validPermissions {
		assert.True(t, HasPermission(RoleAdmin, perm), "admin missing %s", perm)
	}
}

func TestSalesRepPermissionSubset(t *testing.T) {
	granted := []Permission{
		PermCreateOrders,
		PermDeliverOrders,
		PermRecordPayments,
		PermCreateReturns,
		PermViewCreditBills,
		PermViewNotifications,
	}
	for _, perm := range granted {
		assert.True(t, HasPermission(RoleSalesRep, perm), "rep missing %s", perm)
	}

	denied := []Permission{
		PermManageUsers,
		PermManageProducts,
		PermManageShops,
		PermApproveOrders,
		PermViewAllOrders,
		PermVerifyPayments,
		PermApproveReturns,
		PermViewDashboard,
	}
	for _, perm := range denied {
		assert.False(t, HasPermission(RoleSalesRep, perm), "rep should not hold %s", perm)
	}
}

func TestHasPermissionUnknownRole(t *testing.T) {
	assert.False(t, HasPermission("intern", PermCreateOrders))
}

func TestParsePermission(t *testing.T) {
	perm, err := ParsePermission("approve_orders")
	require.NoError(t, err)
	assert.Equal(t, PermApproveOrders, perm)

	_, err = ParsePermission("rule_the_world")
	assert.Error(t, err)
}
