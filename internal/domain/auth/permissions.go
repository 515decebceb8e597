package auth

const (
	RoleAdmin  = "admin"
	RoleLeader = "leader"
	RoleMember = "member"
)

const (
	PermLeaveList       = "leave.list"
	PermLeaveCreate     = "leave.create"
	PermLeaveExecute    = "leave.execute"
	PermLeaveSupplement = "leave.supplement"
	PermDayOffView      = "dayoff.view"
	PermDayOffEdit      = "dayoff.edit"
	PermUsersManage     = "users.manage"
	PermReportsView     = "reports.view"
)

var DefaultPermissions = []string{
	PermLeaveList,
	PermLeaveCreate,
	PermLeaveExecute,
	PermLeaveSupplement,
	PermDayOffView,
	PermDayOffEdit,
	PermUsersManage,
	PermReportsView,
}

var RolePermissions = map[string][]string{
	RoleMember: {
		PermLeaveList,
		PermLeaveCreate,
		PermDayOffView,
	},
	RoleLeader: {
		PermLeaveList,
		PermLeaveCreate,
		PermLeaveExecute,
		PermDayOffView,
		PermReportsView,
	},
	RoleAdmin: DefaultPermissions,
}
