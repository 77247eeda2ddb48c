package shared

// Principal describes the authenticated actor as supplied by the identity
// provider. The core trusts these fields as given.
type Principal struct {
	UserID          int64
	CompanyID       int64
	Role            string
	AssignedSiteIDs []string
}

// AssignedSiteCount returns how many concrete sites the actor is pinned to.
func (p Principal) AssignedSiteCount() int {
	return len(p.AssignedSiteIDs)
}

// CanReachSite reports whether the actor may operate on the given site.
// An actor with no explicit site restriction reaches every company site.
func (p Principal) CanReachSite(siteID string) bool {
	if len(p.AssignedSiteIDs) == 0 {
		return true
	}
	for _, id := range p.AssignedSiteIDs {
		if id == siteID {
			return true
		}
	}
	return false
}
