package masterdata

import "time"

// AggregateSiteID is the synthetic pseudo-site denoting the merged
// "All Locations" view. It is never persisted as a real site.
const AggregateSiteID = "all"

// IsAggregate reports whether the site ID names the aggregate pseudo-site.
func IsAggregate(siteID string) bool {
	return siteID == AggregateSiteID
}

// Company is a tenant of the portal.
type Company struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Site is a physical or organisational location owned by a company.
type Site struct {
	ID        string
	CompanyID int64
	Name      string
	CreatedAt time.Time
}

// User is a portal account within a company.
type User struct {
	ID        int64
	CompanyID int64
	Email     string
	Name      string
	Role      string
	IsActive  bool
}
