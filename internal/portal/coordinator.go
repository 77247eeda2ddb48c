package portal

import (
	"context"
	"sort"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/checklist"
	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/profiling"
	"github.com/meridian-esg/meridian-esg/internal/rbac"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// ChecklistPort abstracts checklist reads for the coordinator.
type ChecklistPort interface {
	GetChecklistForSite(ctx context.Context, companyID int64, siteID string) ([]checklist.Element, error)
	GetEntriesForSite(ctx context.Context, companyID int64, siteID string) ([]checklist.Entry, error)
	GetEntry(ctx context.Context, instanceID string) (checklist.Entry, error)
	ListGeneratedSites(ctx context.Context, companyID int64) ([]checklist.SiteRef, error)
}

// AssignmentPort abstracts assignment reads and mutations.
type AssignmentPort interface {
	Resolve(ctx context.Context, companyID int64, siteID string) (assignment.Set, error)
	AssignCategory(ctx context.Context, input assignment.CategoryInput) error
	AssignElement(ctx context.Context, input assignment.ElementInput) error
}

// ProfilePort abstracts profiling state and answer edits.
type ProfilePort interface {
	Profile(ctx context.Context, companyID int64, siteID string) (profiling.SiteProfile, error)
	EditAnswer(ctx context.Context, input profiling.AnswerInput) (profiling.SiteProfile, error)
}

// SitePort abstracts site lookups.
type SitePort interface {
	GetSite(ctx context.Context, companyID int64, siteID string) (masterdata.Site, error)
	ListSites(ctx context.Context, companyID int64) ([]masterdata.Site, error)
}

// AggregationObserver records aggregation passes for metrics.
type AggregationObserver interface {
	ObserveAggregation(partial bool)
}

// Coordinator serves the checklist view and gates every mutation. Permission
// checks live here, at the orchestrator: the UI is never trusted, so each
// entry point re-checks capabilities even when a control was exposed.
type Coordinator struct {
	resolver    *rbac.Resolver
	aggregator  *checklist.Aggregator
	checklists  ChecklistPort
	assignments AssignmentPort
	profiles    ProfilePort
	sites       SitePort
	observer    AggregationObserver
	logger      *slog.Logger
}

// NewCoordinator builds Coordinator.
func NewCoordinator(resolver *rbac.Resolver, aggregator *checklist.Aggregator, checklists ChecklistPort, assignments AssignmentPort, profiles ProfilePort, sites SitePort, observer AggregationObserver, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		resolver:    resolver,
		aggregator:  aggregator,
		checklists:  checklists,
		assignments: assignments,
		profiles:    profiles,
		sites:       sites,
		observer:    observer,
		logger:      logger,
	}
}

// ItemView is one checklist row of the single-site view, annotated with its
// effective assignee for display.
type ItemView struct {
	InstanceID string              `json:"instance_id"`
	Element    checklist.Element   `json:"element"`
	Assignee   *assignment.UserRef `json:"assignee"`
}

// AggregationWarning reports sites whose checklist could not be fetched
// during an all-locations pass. Non-fatal: the remaining sites aggregate
// normally.
type AggregationWarning struct {
	FailedSites []checklist.SiteRef `json:"failed_sites"`
}

// View is the checklist response for either a concrete site or the
// aggregate.
type View struct {
	Scope          string                        `json:"scope"`
	Site           *checklist.SiteRef            `json:"site,omitempty"`
	CanAssign      bool                          `json:"can_assign"`
	StaleChecklist bool                          `json:"stale_checklist"`
	Items          []ItemView                    `json:"items,omitempty"`
	Aggregated     []checklist.AggregatedElement `json:"aggregated,omitempty"`
	Warning        *AggregationWarning           `json:"warning,omitempty"`
}

// ChecklistView serves the read path. A site parameter of "all" yields the
// merged read-only projection; a concrete site yields its checklist with
// effective assignees and, when permitted, assign affordances.
func (c *Coordinator) ChecklistView(ctx context.Context, principal shared.Principal, siteID string) (View, error) {
	role := rbac.Role(principal.Role)
	if !c.resolver.Can(role, rbac.ModuleDataChecklist, rbac.ActionRead) {
		return View{}, shared.ErrPermissionDenied
	}
	if masterdata.IsAggregate(siteID) {
		return c.aggregateView(ctx, principal)
	}
	return c.siteView(ctx, principal, siteID)
}

func (c *Coordinator) aggregateView(ctx context.Context, principal shared.Principal) (View, error) {
	role := rbac.Role(principal.Role)
	lp := c.resolver.LocationPermissions(role, principal.AssignedSiteCount())
	if !lp.ShowLocationDropdown {
		// The aggregate is not selectable for actors pinned to one site.
		return View{}, shared.ErrPermissionDenied
	}

	sites, err := c.checklists.ListGeneratedSites(ctx, principal.CompanyID)
	if err != nil {
		return View{}, err
	}
	reachable := make([]checklist.SiteRef, 0, len(sites))
	for _, s := range sites {
		if principal.CanReachSite(s.ID) {
			reachable = append(reachable, s)
		}
	}

	type fetchResult struct {
		elements []checklist.Element
		err      error
	}
	results := make([]fetchResult, len(reachable))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, site := range reachable {
		g.Go(func() error {
			elements, err := c.checklists.GetChecklistForSite(gctx, principal.CompanyID, site.ID)
			// A failed site must not abort the others; record and continue.
			results[i] = fetchResult{elements: elements, err: err}
			return nil
		})
	}
	_ = g.Wait()

	perSite := make(map[string][]checklist.Element, len(reachable))
	siteRefs := make(map[string]checklist.SiteRef, len(reachable))
	var failed []checklist.SiteRef
	for i, site := range reachable {
		if results[i].err != nil {
			if c.logger != nil {
				c.logger.Warn("site checklist fetch failed during aggregation",
					slog.String("site_id", site.ID), slog.Any("error", results[i].err))
			}
			failed = append(failed, site)
			continue
		}
		perSite[site.ID] = results[i].elements
		siteRefs[site.ID] = site
	}

	view := View{
		Scope: masterdata.AggregateSiteID,
		// The aggregate is a read projection: no assign affordances,
		// regardless of role.
		CanAssign:  false,
		Aggregated: c.aggregator.Aggregate(perSite, siteRefs),
	}
	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].ID < failed[j].ID })
		view.Warning = &AggregationWarning{FailedSites: failed}
	}
	if c.observer != nil {
		c.observer.ObserveAggregation(len(failed) > 0)
	}
	return view, nil
}

func (c *Coordinator) siteView(ctx context.Context, principal shared.Principal, siteID string) (View, error) {
	if siteID == "" {
		return View{}, shared.ErrNotFound
	}
	if !principal.CanReachSite(siteID) {
		return View{}, shared.ErrPermissionDenied
	}
	site, err := c.sites.GetSite(ctx, principal.CompanyID, siteID)
	if err != nil {
		return View{}, err
	}

	entries, err := c.checklists.GetEntriesForSite(ctx, principal.CompanyID, siteID)
	if err != nil {
		return View{}, err
	}
	set, err := c.assignments.Resolve(ctx, principal.CompanyID, siteID)
	if err != nil {
		return View{}, err
	}
	profile, err := c.profiles.Profile(ctx, principal.CompanyID, siteID)
	if err != nil {
		return View{}, err
	}

	items := make([]ItemView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ItemView{
			InstanceID: entry.InstanceID,
			Element:    entry.Element,
			Assignee:   assignment.EffectiveAssignee(entry.InstanceID, entry.Element.Category, set),
		})
	}

	role := rbac.Role(principal.Role)
	return View{
		Scope:          "site",
		Site:           &checklist.SiteRef{ID: site.ID, Name: site.Name},
		CanAssign:      c.resolver.Can(role, rbac.ModuleElementAssignment, rbac.ActionCreate),
		StaleChecklist: profile.Stale(),
		Items:          items,
	}, nil
}

// AssignCategory gates and applies a category-default assignment.
func (c *Coordinator) AssignCategory(ctx context.Context, principal shared.Principal, input assignment.CategoryInput) error {
	if !c.resolver.Can(rbac.Role(principal.Role), rbac.ModuleElementAssignment, rbac.ActionAssign) {
		return shared.ErrPermissionDenied
	}
	if !masterdata.IsAggregate(input.SiteID) && !principal.CanReachSite(input.SiteID) {
		return shared.ErrPermissionDenied
	}
	input.CompanyID = principal.CompanyID
	input.ActorID = principal.UserID
	return c.assignments.AssignCategory(ctx, input)
}

// AssignElement gates and applies a per-instance override. The instance is
// resolved first so the scope checks run against the site and company it
// actually belongs to.
func (c *Coordinator) AssignElement(ctx context.Context, principal shared.Principal, input assignment.ElementInput) error {
	if !c.resolver.Can(rbac.Role(principal.Role), rbac.ModuleElementAssignment, rbac.ActionCreate) {
		return shared.ErrPermissionDenied
	}
	entry, err := c.checklists.GetEntry(ctx, input.InstanceID)
	if err != nil {
		return err
	}
	// Another tenant's instance looks like a missing one.
	if entry.CompanyID != principal.CompanyID {
		return shared.ErrNotFound
	}
	if !principal.CanReachSite(entry.SiteID) {
		return shared.ErrPermissionDenied
	}
	input.ActorID = principal.UserID
	return c.assignments.AssignElement(ctx, input)
}

// EditProfilingAnswer gates and applies a profiling answer edit.
func (c *Coordinator) EditProfilingAnswer(ctx context.Context, principal shared.Principal, input profiling.AnswerInput) (profiling.SiteProfile, error) {
	if !c.resolver.Can(rbac.Role(principal.Role), rbac.ModuleDataChecklist, rbac.ActionUpdate) {
		return profiling.SiteProfile{}, shared.ErrPermissionDenied
	}
	if !masterdata.IsAggregate(input.SiteID) && !principal.CanReachSite(input.SiteID) {
		return profiling.SiteProfile{}, shared.ErrPermissionDenied
	}
	input.CompanyID = principal.CompanyID
	input.ActorID = principal.UserID
	return c.profiles.EditAnswer(ctx, input)
}

// LocationView lists the sites visible to the principal together with the
// location permissions derived from role and pinned-site count.
type LocationView struct {
	Permissions rbac.LocationPermissions `json:"permissions"`
	Sites       []checklist.SiteRef      `json:"sites"`
}

// Locations serves the location selector data.
func (c *Coordinator) Locations(ctx context.Context, principal shared.Principal) (LocationView, error) {
	sites, err := c.sites.ListSites(ctx, principal.CompanyID)
	if err != nil {
		return LocationView{}, err
	}
	refs := make([]checklist.SiteRef, 0, len(sites))
	for _, s := range sites {
		if principal.CanReachSite(s.ID) {
			refs = append(refs, checklist.SiteRef{ID: s.ID, Name: s.Name})
		}
	}
	lp := c.resolver.LocationPermissions(rbac.Role(principal.Role), principal.AssignedSiteCount())
	return LocationView{Permissions: lp, Sites: refs}, nil
}
