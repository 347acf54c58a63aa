package domain

// Role is the single authorization identity a session acts under.
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleSupportAgent  Role = "SUPPORT_AGENT"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Roles lists every role, least privileged first.
var Roles = []Role{RoleCustomer, RoleSupportAgent, RoleAdministrator}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSupportAgent, RoleAdministrator:
		return true
	}
	return false
}

func (r Role) rank() int {
	switch r {
	case RoleSupportAgent:
		return 1
	case RoleAdministrator:
		return 2
	default:
		return 0
	}
}

// HighestRole picks the most privileged recognised role. Unknown values are
// ignored and an empty or unrecognised set yields RoleCustomer.
func HighestRole(roles []Role) Role {
	best := RoleCustomer
	for _, r := range roles {
		if !r.Valid() {
			continue
		}
		if r.rank() > best.rank() {
			best = r
		}
	}
	return best
}

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID   string
	Role Role
}
