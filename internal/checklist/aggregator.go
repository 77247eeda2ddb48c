package checklist

import (
	"sort"

	"log/slog"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Aggregator merges per-site checklists into the "All Locations" view. The
// merge is a pure function of its input; callers run it fresh per request
// because site checklists change independently. One Aggregator serves
// concurrent requests.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

type mergedElement struct {
	element   Element
	firstSite string
	siteIDs   map[string]struct{}
}

// Aggregate builds one row per distinct element identity across every site's
// checklist. Display fields come from the first-seen copy; a disagreement on
// category/unit/cadence is a data-integrity warning, not a fatal error.
// Aggregating zero sites is valid and yields an empty slice.
func (a *Aggregator) Aggregate(perSite map[string][]Element, sites map[string]SiteRef) []AggregatedElement {
	// Walk sites in a fixed order so the first-seen copy is deterministic.
	siteIDs := make([]string, 0, len(perSite))
	for id := range perSite {
		siteIDs = append(siteIDs, id)
	}
	sort.Strings(siteIDs)

	merged := make(map[string]*mergedElement)
	for _, siteID := range siteIDs {
		for _, el := range perSite[siteID] {
			m, ok := merged[el.ID]
			if !ok {
				m = &mergedElement{element: el, firstSite: siteID, siteIDs: make(map[string]struct{})}
				merged[el.ID] = m
			} else if mismatch(m.element, el) {
				if a.logger != nil {
					a.logger.Warn("checklist element disagrees across sites",
						slog.String("element_id", el.ID),
						slog.String("kept_from_site", m.firstSite),
						slog.String("conflicting_site", siteID))
				}
			}
			m.siteIDs[siteID] = struct{}{}
		}
	}

	result := make([]AggregatedElement, 0, len(merged))
	for _, m := range merged {
		locations := make([]SiteRef, 0, len(m.siteIDs))
		for id := range m.siteIDs {
			ref, ok := sites[id]
			if !ok {
				ref = SiteRef{ID: id, Name: id}
			}
			locations = append(locations, ref)
		}
		sort.Slice(locations, func(i, j int) bool { return locations[i].ID < locations[j].ID })
		result = append(result, AggregatedElement{
			Element:      m.element,
			Locations:    locations,
			LocationType: LocationTypeFor(len(locations)),
		})
	}

	// Collators keep mutable iterator state, so each call sorts with its
	// own. Element names order under an English collation so accented
	// names interleave naturally.
	collator := collate.New(language.English)
	sort.Slice(result, func(i, j int) bool {
		ri, rj := CategoryRank(result[i].Element.Category), CategoryRank(result[j].Element.Category)
		if ri != rj {
			return ri < rj
		}
		return collator.CompareString(result[i].Element.Name, result[j].Element.Name) < 0
	})
	return result
}

func mismatch(kept, other Element) bool {
	return kept.Category != other.Category || kept.Unit != other.Unit || kept.Cadence != other.Cadence
}
