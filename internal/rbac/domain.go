package rbac

// Role is the closed enumeration of portal roles. Roles are assigned by the
// identity provider and immutable for the lifetime of a session.
type Role string

const (
	// RoleSuperUser bypasses every capability check.
	RoleSuperUser Role = "super_user"
	// RoleAdmin administers company structure and users.
	RoleAdmin Role = "admin"
	// RoleSiteManager manages one or more sites and their checklists.
	RoleSiteManager Role = "site_manager"
	// RoleUploader is restricted to entering collected data.
	RoleUploader Role = "uploader"
	// RoleViewer has read-only access across sites.
	RoleViewer Role = "viewer"
	// RoleMeterManager maintains meters and their readings.
	RoleMeterManager Role = "meter_manager"
)

// Module names a functional area of the portal.
type Module string

const (
	ModuleCompanyOnboarding  Module = "companyOnboarding"
	ModuleFrameworkSelection Module = "frameworkSelection"
	ModuleDataChecklist      Module = "dataChecklist"
	ModuleMeterManagement    Module = "meterManagement"
	ModuleDataCollection     Module = "dataCollection"
	ModuleDashboard          Module = "dashboard"
	ModuleReports            Module = "reports"
	ModuleUserManagement     Module = "userManagement"
	ModuleSiteManagement     Module = "siteManagement"
	ModuleElementAssignment  Module = "elementAssignment"
)

// Action is an operation a role may perform within a module.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionAssign  Action = "assign"
	ActionApprove Action = "approve"
	ActionExport  Action = "export"
	ActionReview  Action = "review"
)

// ActionSet is the set of actions granted for one module.
type ActionSet map[Action]struct{}

// Actions builds an ActionSet from its members.
func Actions(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s ActionSet) Contains(a Action) bool {
	_, ok := s[a]
	return ok
}

// Grant is the explicit result of a (Role, Module) capability lookup.
// Exactly one of the three shapes holds: All (super_user), a non-empty
// Actions set, or neither, which means the module is invisible to the role.
type Grant struct {
	All     bool
	Actions ActionSet
}

// Denied reports whether the grant permits nothing.
func (g Grant) Denied() bool {
	return !g.All && len(g.Actions) == 0
}

// Permits reports whether the grant covers the action.
func (g Grant) Permits(a Action) bool {
	if g.All {
		return true
	}
	return g.Actions.Contains(a)
}

// RoleGrant holds the full capability entry for one role.
type RoleGrant struct {
	All     bool
	Modules map[Module]ActionSet
}

// Table maps every known role to its capability entry. Loaded once at
// process start, immutable thereafter.
type Table map[Role]RoleGrant

// LocationPermissions answers the three location-related UI questions for a
// role combined with the number of sites the actor is pinned to.
type LocationPermissions struct {
	CanAccessLocationPage bool
	CanChangeLocation     bool
	ShowLocationDropdown  bool
}
