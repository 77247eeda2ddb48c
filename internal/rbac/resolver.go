package rbac

import "log/slog"

// Resolver answers capability questions over a static table. All methods are
// pure given (role, table); absence of data yields the most restrictive
// answer, never a panic.
type Resolver struct {
	table  Table
	logger *slog.Logger
}

// NewResolver constructs a Resolver over the given table.
func NewResolver(table Table, logger *slog.Logger) *Resolver {
	return &Resolver{table: table, logger: logger}
}

// Lookup returns the explicit grant for a (role, module) pair. Unknown roles
// are a configuration error: logged once per lookup and denied.
func (r *Resolver) Lookup(role Role, module Module) Grant {
	entry, ok := r.table[role]
	if !ok {
		if r.logger != nil {
			r.logger.Warn("capability lookup for unknown role", slog.String("role", string(role)))
		}
		return Grant{}
	}
	if entry.All {
		return Grant{All: true}
	}
	actions, ok := entry.Modules[module]
	if !ok {
		return Grant{}
	}
	return Grant{Actions: actions}
}

// Can reports whether the role may perform the action within the module.
func (r *Resolver) Can(role Role, module Module, action Action) bool {
	return r.Lookup(role, module).Permits(action)
}

// LocationPermissions derives the location page/selector behaviour from the
// role's site-management capabilities and the number of sites the actor is
// pinned to. A count of zero means the actor is unrestricted.
func (r *Resolver) LocationPermissions(role Role, assignedSiteCount int) LocationPermissions {
	canAccess := r.Can(role, ModuleSiteManagement, ActionRead)
	canMutate := r.Can(role, ModuleSiteManagement, ActionUpdate)
	// An actor pinned to exactly one site never gets a mutable selector.
	canChange := canMutate && assignedSiteCount != 1
	return LocationPermissions{
		CanAccessLocationPage: canAccess,
		CanChangeLocation:     canChange,
		ShowLocationDropdown:  canAccess || assignedSiteCount > 1,
	}
}
