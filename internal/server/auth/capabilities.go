package auth

import "github.com/dmitrijs2005/workly/internal/server/models"

// Capability is a permission granted by a role.
type Capability string

const (
	CapabilityUser  Capability = "user"
	CapabilityAdmin Capability = "admin"
)

var roleCapabilities = map[models.Role][]Capability{
	models.RoleUser:  {CapabilityUser},
	models.RoleAdmin: {CapabilityUser, CapabilityAdmin},
}

// GrantedCapabilities returns the capabilities of role. Unknown roles get none.
func GrantedCapabilities(role models.Role) map[Capability]struct{} {
	caps := make(map[Capability]struct{}, len(roleCapabilities[role]))
	for _, c := range roleCapabilities[role] {
		caps[c] = struct{}{}
	}
	return caps
}

// HasCapability reports whether role grants c.
func HasCapability(role models.Role, c Capability) bool {
	_, ok := GrantedCapabilities(role)[c]
	return ok
}
