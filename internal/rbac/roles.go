package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	// RoleOperator may place, control and tear down calls.
	RoleOperator = "operator"
	// RoleAnalyst has read-only access to call history.
	RoleAnalyst         = "analyst"
	RoleSuperAdmin      = "super_admin"
	RoleNetworkOperator = "network_operator" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleNetworkOperator }
