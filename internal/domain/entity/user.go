package entity

import (
	"context"
	"strings"
)

// Capability is a permission resolved from the user's role
type Capability string

const (
	CapabilityClosingEdit    Capability = "closing.edit"
	CapabilityFinanceView    Capability = "finance.view"
	CapabilityFinanceApprove Capability = "finance.approve"
)

// financeRoles are role display names that may act on finance approval
var financeRoles = map[string]bool{
	"super admin": true,
	"admin":       true,
	"finans":      true,
	"muhasebe":    true,
}

// User is the authenticated caller
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Capabilities []Capability `json:"capabilities"`
}

// HasCapability reports whether the user holds c
func (u *User) HasCapability(c Capability) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// CapabilitiesForRole maps a role display name to capabilities. Matching
// ignores case and surrounding spaces so "FINANS " and "Finans" agree.
func CapabilitiesForRole(role string) []Capability {
	caps := []Capability{CapabilityClosingEdit}
	if financeRoles[strings.ToLower(strings.TrimSpace(role))] {
		caps = append(caps, CapabilityFinanceView, CapabilityFinanceApprove)
	}
	return caps
}

type userKey struct{}

// ContextWithUser returns a context carrying the authenticated caller
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the caller stored by ContextWithUser, or nil
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}
