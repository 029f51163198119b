package models

// AccountRole - роль учетной записи, соответствует ENUM в БД.
type AccountRole string

const (
	AccountOperator   AccountRole = "operator"
	AccountSupervisor AccountRole = "supervisor"
	AccountAdmin      AccountRole = "admin"
)

func (r AccountRole) Valid() bool {
	return r == AccountOperator || r == AccountSupervisor || r == AccountAdmin
}

type Permission string

const (
	PermManageUsers        Permission = "manage_users"
	PermManageMatches      Permission = "manage_matches"
	PermManagePlayers      Permission = "manage_players"
	PermCreateTeams        Permission = "create_teams"
	PermEditResults        Permission = "edit_results"
	PermCloseMatch         Permission = "close_match"
	PermExportData         Permission = "export_data"
	PermViewAll            Permission = "view_all"
	PermEditOwnProfile     Permission = "edit_own_profile"
	PermRespondConvocation Permission = "respond_convocation"
)

var rolePermissions = map[AccountRole][]Permission{
	AccountSupervisor: {PermCreateTeams, PermViewAll},
	AccountOperator:   {PermEditOwnProfile, PermRespondConvocation, PermViewAll},
}

// Can сообщает, есть ли у роли указанное право.
// Администратор может все, супервайзер наследует права оператора.
func (r AccountRole) Can(perm Permission) bool {
	switch r {
	case AccountAdmin:
		return true
	case AccountSupervisor:
		return hasPermission(rolePermissions[AccountSupervisor], perm) ||
			hasPermission(rolePermissions[AccountOperator], perm)
	case AccountOperator:
		return hasPermission(rolePermissions[AccountOperator], perm)
	}
	return false
}

func hasPermission(perms []Permission, perm Permission) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	PIN      string `json:"pin" validate:"required,len=4,numeric"`
}
