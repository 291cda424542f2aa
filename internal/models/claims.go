package models

import "github.com/golang-jwt/jwt/v5"

// Admin permissions
const (
	PermissionTradesRead = "trades:read"
	PermissionFeesRead   = "fees:read"
)

// AdminClaims are carried by operator tokens.
type AdminClaims struct {
	jwt.RegisteredClaims
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *AdminClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin":
		return []string{PermissionTradesRead, PermissionFeesRead}
	case "auditor":
		return []string{PermissionFeesRead}
	default:
		return []string{}
	}
}
