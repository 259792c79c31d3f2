package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role is the caller's privilege level as carried in the JWT role claim.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleClient    Role = "client"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
)

// Action names an operation gated by the access policy.
type Action string

const (
	ActionManageCart     Action = "cart:manage"
	ActionPlaceOrder     Action = "order:place"
	ActionViewOwnOrders  Action = "order:view-own"
	ActionManageOrders   Action = "order:manage"
	ActionManageStock    Action = "inventory:manage"
	ActionManageInvoices Action = "invoice:manage"
	ActionViewLoyalty    Action = "loyalty:view"
)

// policy is the single authorization table. Every route consults this map
// instead of hard-coding role checks in handlers.
var policy = map[Action][]Role{
	ActionManageCart:     {RoleAnonymous, RoleClient, RoleStaff, RoleAdmin},
	ActionPlaceOrder:     {RoleClient, RoleStaff, RoleAdmin},
	ActionViewOwnOrders:  {RoleClient, RoleStaff, RoleAdmin},
	ActionManageOrders:   {RoleStaff, RoleAdmin},
	ActionManageStock:    {RoleStaff, RoleAdmin},
	ActionManageInvoices: {RoleAdmin},
	ActionViewLoyalty:    {RoleClient, RoleStaff, RoleAdmin},
}

// Allowed reports whether role may perform action.
func Allowed(role Role, action Action) bool {
	for _, allowed := range policy[action] {
		if role == allowed {
			return true
		}
	}
	return false
}

// Authorize gates a route group on the access policy for one action.
func Authorize(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if !Allowed(role, action) {
			if role == RoleAnonymous {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
