package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		role    Role
		action  Action
		allowed bool
	}{
		{RoleAnonymous, ActionManageCart, true},
		{RoleAnonymous, ActionPlaceOrder, false},
		{RoleAnonymous, ActionManageStock, false},
		{RoleClient, ActionPlaceOrder, true},
		{RoleClient, ActionViewOwnOrders, true},
		{RoleClient, ActionManageOrders, false},
		{RoleClient, ActionManageInvoices, false},
		{RoleStaff, ActionManageOrders, true},
		{RoleStaff, ActionManageStock, true},
		{RoleStaff, ActionManageInvoices, false},
		{RoleAdmin, ActionManageInvoices, true},
		{RoleAdmin, ActionManageCart, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, Allowed(c.role, c.action),
			"%s / %s", c.role, c.action)
	}
}
