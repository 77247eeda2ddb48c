package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/checklist"
	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/profiling"
	"github.com/meridian-esg/meridian-esg/internal/rbac"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

type fakeChecklists struct {
	perSite   map[string][]checklist.Element
	entries   map[string][]checklist.Entry
	byID      map[string]checklist.Entry
	generated []checklist.SiteRef
	failSites map[string]error
}

func (f *fakeChecklists) GetChecklistForSite(ctx context.Context, companyID int64, siteID string) ([]checklist.Element, error) {
	if err, ok := f.failSites[siteID]; ok {
		return nil, err
	}
	return f.perSite[siteID], nil
}

func (f *fakeChecklists) GetEntriesForSite(ctx context.Context, companyID int64, siteID string) ([]checklist.Entry, error) {
	return f.entries[siteID], nil
}

func (f *fakeChecklists) GetEntry(ctx context.Context, instanceID string) (checklist.Entry, error) {
	entry, ok := f.byID[instanceID]
	if !ok {
		return checklist.Entry{}, shared.ErrNotFound
	}
	return entry, nil
}

func (f *fakeChecklists) ListGeneratedSites(ctx context.Context, companyID int64) ([]checklist.SiteRef, error) {
	return f.generated, nil
}

type fakeAssignments struct {
	set        assignment.Set
	categories []assignment.CategoryInput
	elements   []assignment.ElementInput
}

func (f *fakeAssignments) Resolve(ctx context.Context, companyID int64, siteID string) (assignment.Set, error) {
	return f.set, nil
}

func (f *fakeAssignments) AssignCategory(ctx context.Context, input assignment.CategoryInput) error {
	f.categories = append(f.categories, input)
	return nil
}

func (f *fakeAssignments) AssignElement(ctx context.Context, input assignment.ElementInput) error {
	f.elements = append(f.elements, input)
	return nil
}

type fakeProfiles struct {
	profile profiling.SiteProfile
	edits   []profiling.AnswerInput
}

func (f *fakeProfiles) Profile(ctx context.Context, companyID int64, siteID string) (profiling.SiteProfile, error) {
	return f.profile, nil
}

func (f *fakeProfiles) EditAnswer(ctx context.Context, input profiling.AnswerInput) (profiling.SiteProfile, error) {
	f.edits = append(f.edits, input)
	return f.profile, nil
}

type fakeSites struct {
	sites map[string]masterdata.Site
}

func (f *fakeSites) GetSite(ctx context.Context, companyID int64, siteID string) (masterdata.Site, error) {
	site, ok := f.sites[siteID]
	if !ok {
		return masterdata.Site{}, shared.ErrNotFound
	}
	return site, nil
}

func (f *fakeSites) ListSites(ctx context.Context, companyID int64) ([]masterdata.Site, error) {
	out := make([]masterdata.Site, 0, len(f.sites))
	for _, s := range f.sites {
		out = append(out, s)
	}
	return out, nil
}

type fakeObserver struct {
	partials []bool
}

func (f *fakeObserver) ObserveAggregation(partial bool) {
	f.partials = append(f.partials, partial)
}

func newTestCoordinator(checklists *fakeChecklists, assignments *fakeAssignments, profiles *fakeProfiles, sites *fakeSites, observer *fakeObserver) *Coordinator {
	var obs AggregationObserver
	if observer != nil {
		obs = observer
	}
	return NewCoordinator(
		rbac.NewResolver(rbac.DefaultTable(), nil),
		checklist.NewAggregator(nil),
		checklists,
		assignments,
		profiles,
		sites,
		obs,
		nil,
	)
}

func admin() shared.Principal {
	return shared.Principal{UserID: 1, CompanyID: 10, Role: string(rbac.RoleAdmin)}
}

func TestChecklistViewDeniedWithoutReadCapability(t *testing.T) {
	coord := newTestCoordinator(&fakeChecklists{}, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{}, nil)

	principal := shared.Principal{UserID: 1, CompanyID: 10, Role: string(rbac.RoleMeterManager)}
	_, err := coord.ChecklistView(context.Background(), principal, "site-a")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestSiteViewBasics(t *testing.T) {
	el := checklist.Element{ID: "e1", Category: checklist.CategoryEnvironmental, Name: "Electricity"}
	checklists := &fakeChecklists{entries: map[string][]checklist.Entry{
		"site-a": {{InstanceID: "inst-1", CompanyID: 10, SiteID: "site-a", Element: el}},
	}}
	set := assignment.NewSet()
	set.Category[checklist.CategoryEnvironmental] = assignment.UserRef{ID: 5, Name: "Env Owner"}
	assignments := &fakeAssignments{set: set}
	profiles := &fakeProfiles{profile: profiling.SiteProfile{Status: profiling.StatusChecklistGenerated}}
	sites := &fakeSites{sites: map[string]masterdata.Site{"site-a": {ID: "site-a", CompanyID: 10, Name: "Alpha"}}}
	coord := newTestCoordinator(checklists, assignments, profiles, sites, nil)

	view, err := coord.ChecklistView(context.Background(), admin(), "site-a")
	require.NoError(t, err)
	require.Equal(t, "site", view.Scope)
	require.Equal(t, "Alpha", view.Site.Name)
	require.True(t, view.CanAssign)
	require.False(t, view.StaleChecklist)
	require.Len(t, view.Items, 1)
	require.NotNil(t, view.Items[0].Assignee)
	require.Equal(t, int64(5), view.Items[0].Assignee.ID)
}

func TestSiteViewHidesAssignForUploader(t *testing.T) {
	checklists := &fakeChecklists{entries: map[string][]checklist.Entry{}}
	sites := &fakeSites{sites: map[string]masterdata.Site{"site-a": {ID: "site-a", CompanyID: 10, Name: "Alpha"}}}
	coord := newTestCoordinator(checklists, &fakeAssignments{set: assignment.NewSet()}, &fakeProfiles{}, sites, nil)

	principal := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleUploader), AssignedSiteIDs: []string{"site-a"}}
	view, err := coord.ChecklistView(context.Background(), principal, "site-a")
	require.NoError(t, err)
	require.False(t, view.CanAssign)
}

func TestSiteViewDeniesUnreachableSite(t *testing.T) {
	coord := newTestCoordinator(&fakeChecklists{}, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{}, nil)

	principal := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleUploader), AssignedSiteIDs: []string{"site-a"}}
	_, err := coord.ChecklistView(context.Background(), principal, "site-b")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestSiteViewUnknownSite(t *testing.T) {
	coord := newTestCoordinator(&fakeChecklists{}, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{sites: map[string]masterdata.Site{}}, nil)

	_, err := coord.ChecklistView(context.Background(), admin(), "nope")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAggregateViewNeverOffersAssign(t *testing.T) {
	checklists := &fakeChecklists{
		generated: []checklist.SiteRef{{ID: "site-a", Name: "Alpha"}, {ID: "site-b", Name: "Beta"}},
		perSite: map[string][]checklist.Element{
			"site-a": {{ID: "e1", Category: checklist.CategoryEnvironmental, Name: "Electricity"}},
			"site-b": {{ID: "e1", Category: checklist.CategoryEnvironmental, Name: "Electricity"}},
		},
	}
	observer := &fakeObserver{}
	coord := newTestCoordinator(checklists, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{}, observer)

	// Admin may assign on concrete sites, yet the aggregate stays read-only.
	view, err := coord.ChecklistView(context.Background(), admin(), masterdata.AggregateSiteID)
	require.NoError(t, err)
	require.Equal(t, masterdata.AggregateSiteID, view.Scope)
	require.False(t, view.CanAssign)
	require.Nil(t, view.Warning)
	require.Len(t, view.Aggregated, 1)
	require.Equal(t, checklist.LocationShared, view.Aggregated[0].LocationType)
	require.Equal(t, []bool{false}, observer.partials)
}

func TestAggregateViewDeniedWithoutDropdown(t *testing.T) {
	coord := newTestCoordinator(&fakeChecklists{}, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{}, nil)

	// Uploader pinned to one site has no location dropdown, so no aggregate.
	principal := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleUploader), AssignedSiteIDs: []string{"site-a"}}
	_, err := coord.ChecklistView(context.Background(), principal, masterdata.AggregateSiteID)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestAggregateViewFiltersUnreachableSites(t *testing.T) {
	checklists := &fakeChecklists{
		generated: []checklist.SiteRef{{ID: "site-a", Name: "Alpha"}, {ID: "site-b", Name: "Beta"}},
		perSite: map[string][]checklist.Element{
			"site-a": {{ID: "e1", Category: checklist.CategoryEnvironmental, Name: "Electricity"}},
			"site-b": {{ID: "e2", Category: checklist.CategorySocial, Name: "Headcount"}},
		},
	}
	coord := newTestCoordinator(checklists, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{}, nil)

	principal := shared.Principal{UserID: 3, CompanyID: 10, Role: string(rbac.RoleSiteManager), AssignedSiteIDs: []string{"site-a", "site-c"}}
	view, err := coord.ChecklistView(context.Background(), principal, masterdata.AggregateSiteID)
	require.NoError(t, err)
	require.Len(t, view.Aggregated, 1)
	require.Equal(t, "e1", view.Aggregated[0].Element.ID)
}

func TestAggregateViewPartialFailure(t *testing.T) {
	checklists := &fakeChecklists{
		generated: []checklist.SiteRef{{ID: "site-a", Name: "Alpha"}, {ID: "site-b", Name: "Beta"}},
		perSite: map[string][]checklist.Element{
			"site-a": {{ID: "e1", Category: checklist.CategoryEnvironmental, Name: "Electricity"}},
		},
		failSites: map[string]error{"site-b": errors.New("connection reset")},
	}
	observer := &fakeObserver{}
	coord := newTestCoordinator(checklists, &fakeAssignments{}, &fakeProfiles{}, &fakeSites{}, observer)

	view, err := coord.ChecklistView(context.Background(), admin(), masterdata.AggregateSiteID)
	require.NoError(t, err)
	require.Len(t, view.Aggregated, 1)
	require.NotNil(t, view.Warning)
	require.Equal(t, []checklist.SiteRef{{ID: "site-b", Name: "Beta"}}, view.Warning.FailedSites)
	require.Equal(t, []bool{true}, observer.partials)
}

func TestAssignCategoryGate(t *testing.T) {
	assignments := &fakeAssignments{}
	coord := newTestCoordinator(&fakeChecklists{}, assignments, &fakeProfiles{}, &fakeSites{}, nil)

	input := assignment.CategoryInput{SiteID: "site-a", Category: checklist.CategoryEnvironmental, UserID: 5}

	uploader := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleUploader)}
	err := coord.AssignCategory(context.Background(), uploader, input)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Empty(t, assignments.categories)

	err = coord.AssignCategory(context.Background(), admin(), input)
	require.NoError(t, err)
	require.Len(t, assignments.categories, 1)
	// Principal identity is stamped server-side, never taken from the body.
	require.Equal(t, int64(10), assignments.categories[0].CompanyID)
	require.Equal(t, int64(1), assignments.categories[0].ActorID)
}

func TestAssignCategoryDeniesUnreachableSite(t *testing.T) {
	assignments := &fakeAssignments{}
	coord := newTestCoordinator(&fakeChecklists{}, assignments, &fakeProfiles{}, &fakeSites{}, nil)

	principal := shared.Principal{UserID: 3, CompanyID: 10, Role: string(rbac.RoleSiteManager), AssignedSiteIDs: []string{"site-a"}}
	err := coord.AssignCategory(context.Background(), principal, assignment.CategoryInput{
		SiteID: "site-b", Category: checklist.CategoryEnvironmental, UserID: 5,
	})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Empty(t, assignments.categories)
}

func TestAssignElementGate(t *testing.T) {
	assignments := &fakeAssignments{}
	checklists := &fakeChecklists{byID: map[string]checklist.Entry{
		"inst-1": {InstanceID: "inst-1", CompanyID: 10, SiteID: "site-a"},
	}}
	coord := newTestCoordinator(checklists, assignments, &fakeProfiles{}, &fakeSites{}, nil)

	viewer := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleViewer)}
	err := coord.AssignElement(context.Background(), viewer, assignment.ElementInput{InstanceID: "inst-1", UserID: 5})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Empty(t, assignments.elements)

	err = coord.AssignElement(context.Background(), admin(), assignment.ElementInput{InstanceID: "inst-1", UserID: 5})
	require.NoError(t, err)
	require.Len(t, assignments.elements, 1)
	require.Equal(t, int64(1), assignments.elements[0].ActorID)
}

func TestAssignElementRejectsForeignCompanyInstance(t *testing.T) {
	assignments := &fakeAssignments{}
	checklists := &fakeChecklists{byID: map[string]checklist.Entry{
		"inst-foreign": {InstanceID: "inst-foreign", CompanyID: 99, SiteID: "other-site"},
	}}
	coord := newTestCoordinator(checklists, assignments, &fakeProfiles{}, &fakeSites{}, nil)

	principal := shared.Principal{UserID: 3, CompanyID: 10, Role: string(rbac.RoleSiteManager), AssignedSiteIDs: []string{"site-a"}}
	err := coord.AssignElement(context.Background(), principal, assignment.ElementInput{InstanceID: "inst-foreign", UserID: 5})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, assignments.elements)
}

func TestAssignElementRejectsUnreachableSiteInstance(t *testing.T) {
	assignments := &fakeAssignments{}
	checklists := &fakeChecklists{byID: map[string]checklist.Entry{
		"inst-b": {InstanceID: "inst-b", CompanyID: 10, SiteID: "site-b"},
	}}
	coord := newTestCoordinator(checklists, assignments, &fakeProfiles{}, &fakeSites{}, nil)

	principal := shared.Principal{UserID: 3, CompanyID: 10, Role: string(rbac.RoleSiteManager), AssignedSiteIDs: []string{"site-a"}}
	err := coord.AssignElement(context.Background(), principal, assignment.ElementInput{InstanceID: "inst-b", UserID: 5})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Empty(t, assignments.elements)
}

func TestAssignElementUnknownInstanceNotFound(t *testing.T) {
	assignments := &fakeAssignments{}
	coord := newTestCoordinator(&fakeChecklists{}, assignments, &fakeProfiles{}, &fakeSites{}, nil)

	err := coord.AssignElement(context.Background(), admin(), assignment.ElementInput{InstanceID: "missing", UserID: 5})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, assignments.elements)
}

func TestEditProfilingAnswerGate(t *testing.T) {
	profiles := &fakeProfiles{}
	coord := newTestCoordinator(&fakeChecklists{}, &fakeAssignments{}, profiles, &fakeSites{}, nil)

	input := profiling.AnswerInput{SiteID: "site-a", QuestionID: "q1", Value: "yes"}

	viewer := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleViewer)}
	_, err := coord.EditProfilingAnswer(context.Background(), viewer, input)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Empty(t, profiles.edits)

	_, err = coord.EditProfilingAnswer(context.Background(), admin(), input)
	require.NoError(t, err)
	require.Len(t, profiles.edits, 1)
	require.Equal(t, int64(10), profiles.edits[0].CompanyID)
}

func TestLocationsFiltersByReach(t *testing.T) {
	sites := &fakeSites{sites: map[string]masterdata.Site{
		"site-a": {ID: "site-a", CompanyID: 10, Name: "Alpha"},
		"site-b": {ID: "site-b", CompanyID: 10, Name: "Beta"},
	}}
	coord := newTestCoordinator(&fakeChecklists{}, &fakeAssignments{}, &fakeProfiles{}, sites, nil)

	principal := shared.Principal{UserID: 2, CompanyID: 10, Role: string(rbac.RoleViewer), AssignedSiteIDs: []string{"site-b"}}
	view, err := coord.Locations(context.Background(), principal)
	require.NoError(t, err)
	require.Equal(t, []checklist.SiteRef{{ID: "site-b", Name: "Beta"}}, view.Sites)
	require.True(t, view.Permissions.CanAccessLocationPage)
	require.False(t, view.Permissions.CanChangeLocation)
}
