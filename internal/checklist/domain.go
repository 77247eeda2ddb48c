package checklist

// Category groups checklist elements into the three ESG pillars.
type Category string

const (
	CategoryEnvironmental Category = "Environmental"
	CategorySocial        Category = "Social"
	CategoryGovernance    Category = "Governance"
)

// CategoryRank returns the fixed display position of a category. Unknown
// categories sort last.
func CategoryRank(c Category) int {
	switch c {
	case CategoryEnvironmental:
		return 0
	case CategorySocial:
		return 1
	case CategoryGovernance:
		return 2
	default:
		return 3
	}
}

// ValidCategory reports whether c is one of the three pillars.
func ValidCategory(c Category) bool {
	return CategoryRank(c) < 3
}

// Element is a framework-defined data requirement. Element identity is
// stable across sites: the same element ID denotes the same requirement at
// every site where it applies.
type Element struct {
	ID         string
	Category   Category
	Name       string
	Unit       string
	Cadence    string
	Frameworks []string
}

// Entry is the per-site instance of an element, produced once a site's
// profiling wizard is complete. Its existence implies the element is
// applicable at that site.
type Entry struct {
	InstanceID string
	CompanyID  int64
	SiteID     string
	Element    Element
}

// SiteRef identifies a site in aggregation output.
type SiteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LocationType classifies an aggregated element by how many sites carry it.
type LocationType string

const (
	// LocationShared marks elements present at two or more sites.
	LocationShared LocationType = "shared"
	// LocationUnique marks elements present at exactly one site.
	LocationUnique LocationType = "unique"
	// LocationNone is a defensive classification for zero sites.
	LocationNone LocationType = "none"
)

// LocationTypeFor derives the classification from the contributing-site
// count. It is recomputed on every aggregation, never cached.
func LocationTypeFor(siteCount int) LocationType {
	switch {
	case siteCount >= 2:
		return LocationShared
	case siteCount == 1:
		return LocationUnique
	default:
		return LocationNone
	}
}

// AggregatedElement is the derived, ephemeral row of the "All Locations"
// view: one element plus the sites contributing it.
type AggregatedElement struct {
	Element      Element
	Locations    []SiteRef
	LocationType LocationType
}
