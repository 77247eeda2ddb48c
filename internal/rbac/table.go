package rbac

// DefaultTable returns the static capability table. Modules absent from a
// role's entry are invisible to that role; there is no fallthrough.
func DefaultTable() Table {
	return Table{
		RoleSuperUser: {All: true},
		RoleAdmin: {Modules: map[Module]ActionSet{
			ModuleCompanyOnboarding:  Actions(ActionRead, ActionCreate, ActionUpdate),
			ModuleFrameworkSelection: Actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
			ModuleDataChecklist:      Actions(ActionRead, ActionUpdate, ActionAssign),
			ModuleMeterManagement:    Actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
			ModuleDataCollection:     Actions(ActionRead, ActionUpdate, ActionApprove, ActionReview),
			ModuleDashboard:          Actions(ActionRead, ActionExport),
			ModuleReports:            Actions(ActionRead, ActionExport),
			ModuleUserManagement:     Actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
			ModuleSiteManagement:     Actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
			ModuleElementAssignment:  Actions(ActionRead, ActionCreate, ActionUpdate, ActionAssign),
		}},
		RoleSiteManager: {Modules: map[Module]ActionSet{
			ModuleCompanyOnboarding: Actions(ActionRead),
			ModuleDataChecklist:     Actions(ActionRead, ActionUpdate, ActionAssign),
			ModuleMeterManagement:   Actions(ActionRead, ActionCreate, ActionUpdate),
			ModuleDataCollection:    Actions(ActionRead, ActionUpdate, ActionApprove, ActionReview),
			ModuleDashboard:         Actions(ActionRead),
			ModuleReports:           Actions(ActionRead, ActionExport),
			ModuleSiteManagement:    Actions(ActionRead, ActionUpdate),
			ModuleElementAssignment: Actions(ActionRead, ActionCreate, ActionUpdate, ActionAssign),
		}},
		RoleUploader: {Modules: map[Module]ActionSet{
			ModuleDataChecklist:  Actions(ActionRead),
			ModuleDataCollection: Actions(ActionRead, ActionCreate, ActionUpdate),
			ModuleDashboard:      Actions(ActionRead),
		}},
		RoleViewer: {Modules: map[Module]ActionSet{
			ModuleCompanyOnboarding: Actions(ActionRead),
			ModuleDataChecklist:     Actions(ActionRead),
			ModuleDataCollection:    Actions(ActionRead),
			ModuleDashboard:         Actions(ActionRead),
			ModuleReports:           Actions(ActionRead, ActionExport),
			ModuleSiteManagement:    Actions(ActionRead),
		}},
		RoleMeterManager: {Modules: map[Module]ActionSet{
			ModuleMeterManagement: Actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
			ModuleDataCollection:  Actions(ActionRead),
			ModuleDashboard:       Actions(ActionRead),
		}},
	}
}
