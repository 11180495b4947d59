package policy

import "github.com/oksasatya/go-user-management/internal/domain/entity"

// Operation names an action subject to authorization.
type Operation string

const (
	OpRegister       Operation = "register"
	OpLogin          Operation = "login"
	OpVerifyEmail    Operation = "verify_email"
	OpCreateUser     Operation = "create_user"
	OpGetUser        Operation = "get_user"
	OpUpdateUser     Operation = "update_user"
	OpDeleteUser     Operation = "delete_user"
	OpListUsers      Operation = "list_users"
	OpSearchUsers    Operation = "search_users"
	OpUnlockUser     Operation = "unlock_user"
	OpUploadAvatar   Operation = "upload_avatar"
	OpChangeRole     Operation = "change_role"
	OpChangePassword Operation = "change_password"
)

type scope int

const (
	scopeNone scope = iota
	scopeSelf
	scopeAny
)

// rules is the authorization table for protected operations. A role missing
// from an operation's row is denied.
var rules = map[Operation]map[entity.Role]scope{
	OpCreateUser: {
		entity.RoleAdmin: scopeAny,
	},
	OpGetUser: {
		entity.RoleAdmin:         scopeAny,
		entity.RoleManager:       scopeAny,
		entity.RoleAuthenticated: scopeSelf,
	},
	OpUpdateUser: {
		entity.RoleAdmin:         scopeAny,
		entity.RoleManager:       scopeAny,
		entity.RoleAuthenticated: scopeSelf,
	},
	OpUploadAvatar: {
		entity.RoleAdmin:         scopeAny,
		entity.RoleManager:       scopeAny,
		entity.RoleAuthenticated: scopeSelf,
	},
	OpDeleteUser: {
		entity.RoleAdmin: scopeAny,
	},
	OpListUsers: {
		entity.RoleAdmin:   scopeAny,
		entity.RoleManager: scopeAny,
	},
	OpSearchUsers: {
		entity.RoleAdmin:   scopeAny,
		entity.RoleManager: scopeAny,
	},
	OpUnlockUser: {
		entity.RoleAdmin:   scopeAny,
		entity.RoleManager: scopeAny,
	},
	OpChangeRole: {
		entity.RoleAdmin: scopeAny,
	},
	OpChangePassword: {
		entity.RoleAdmin:         scopeAny,
		entity.RoleManager:       scopeSelf,
		entity.RoleAuthenticated: scopeSelf,
	},
}

var open = map[Operation]bool{
	OpRegister:    true,
	OpLogin:       true,
	OpVerifyEmail: true,
}

// Allowed reports whether a caller with role and actorID may perform op on targetID.
// targetID may be empty for collection-level operations.
func Allowed(role entity.Role, op Operation, actorID, targetID string) bool {
	if open[op] {
		return true
	}
	byRole, ok := rules[op]
	if !ok {
		return false
	}
	switch byRole[role] {
	case scopeAny:
		return true
	case scopeSelf:
		return actorID != "" && actorID == targetID
	default:
		return false
	}
}
