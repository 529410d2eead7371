package domain

// Role names as stored in the roles table
const (
	RoleSuperAdmin    = "super admin"
	RoleBusinessOwner = "business owner"
	RoleBusinessAdmin = "business admin"
	RoleDispatcher    = "dispatcher"
	RoleTechnician    = "technician"
)

// JobManagers may create, assign, schedule, edit and delete jobs
var JobManagers = []string{RoleBusinessOwner, RoleDispatcher}
