package authz

const (
	RoleOperator = 10
	RoleAudit    = 30
	RoleAdmin    = 50
)

func IsElevated(roleID int) bool {
	return roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}
