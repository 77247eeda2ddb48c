package profiling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

type memoryProfileRepo struct {
	profiles  map[string]SiteProfile
	answers   map[string]map[string]string
	questions []string
	now       time.Time
	upserts   int
}

func newMemoryProfileRepo(questions ...string) *memoryProfileRepo {
	return &memoryProfileRepo{
		profiles:  make(map[string]SiteProfile),
		answers:   make(map[string]map[string]string),
		questions: questions,
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *memoryProfileRepo) key(companyID int64, siteID string) string {
	return fmt.Sprintf("%d:%s", companyID, siteID)
}

func (r *memoryProfileRepo) tick() time.Time {
	r.now = r.now.Add(time.Minute)
	return r.now
}

func (r *memoryProfileRepo) GetProfile(ctx context.Context, companyID int64, siteID string) (SiteProfile, error) {
	if p, ok := r.profiles[r.key(companyID, siteID)]; ok {
		return p, nil
	}
	return SiteProfile{CompanyID: companyID, SiteID: siteID, Status: StatusNoAnswers}, nil
}

func (r *memoryProfileRepo) UpsertAnswer(ctx context.Context, input AnswerInput) error {
	key := r.key(input.CompanyID, input.SiteID)
	if r.answers[key] == nil {
		r.answers[key] = make(map[string]string)
	}
	r.answers[key][input.QuestionID] = input.Value
	r.upserts++
	return nil
}

func (r *memoryProfileRepo) CountUnanswered(ctx context.Context, companyID int64, siteID string) (int, error) {
	answered := r.answers[r.key(companyID, siteID)]
	missing := 0
	for _, q := range r.questions {
		if _, ok := answered[q]; !ok {
			missing++
		}
	}
	return missing, nil
}

func (r *memoryProfileRepo) SetStatus(ctx context.Context, companyID int64, siteID string, status Status) error {
	key := r.key(companyID, siteID)
	p, ok := r.profiles[key]
	if !ok {
		p = SiteProfile{CompanyID: companyID, SiteID: siteID}
	}
	p.Status = status
	p.AnswersUpdatedAt = r.tick()
	r.profiles[key] = p
	return nil
}

func (r *memoryProfileRepo) MarkGenerated(ctx context.Context, companyID int64, siteID string) error {
	key := r.key(companyID, siteID)
	p := r.profiles[key]
	p.Status = StatusChecklistGenerated
	p.GeneratedAt = r.tick()
	r.profiles[key] = p
	return nil
}

type recordingGenerator struct {
	calls []string
	err   error
}

func (g *recordingGenerator) EnqueueChecklistGenerate(ctx context.Context, companyID int64, siteID string) error {
	g.calls = append(g.calls, siteID)
	return g.err
}

func TestEditAnswerRejectsAggregate(t *testing.T) {
	repo := newMemoryProfileRepo("q1")
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: masterdata.AggregateSiteID, QuestionID: "q1", Value: "yes",
	})
	require.ErrorIs(t, err, shared.ErrInvalidScope)
	require.Zero(t, repo.upserts)
}

func TestEditAnswerFirstAnswerStartsWizard(t *testing.T) {
	repo := newMemoryProfileRepo("q1", "q2")
	svc := NewService(repo, &recordingGenerator{}, nil, nil)

	profile, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "yes",
	})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, profile.Status)
}

func TestEditAnswerLastAnswerCompletesAndEnqueues(t *testing.T) {
	repo := newMemoryProfileRepo("q1", "q2")
	gen := &recordingGenerator{}
	svc := NewService(repo, gen, nil, nil)

	_, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "yes",
	})
	require.NoError(t, err)
	require.Empty(t, gen.calls)

	profile, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q2", Value: "no",
	})
	require.NoError(t, err)
	require.Equal(t, StatusComplete, profile.Status)
	require.Equal(t, []string{"site-a"}, gen.calls)
}

func TestEditAnswerEnqueueFailureKeepsAnswer(t *testing.T) {
	repo := newMemoryProfileRepo("q1")
	gen := &recordingGenerator{err: fmt.Errorf("queue down")}
	svc := NewService(repo, gen, nil, nil)

	profile, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "yes",
	})
	require.NoError(t, err)
	require.Equal(t, StatusComplete, profile.Status)
	require.Equal(t, 1, repo.upserts)
}

func TestEditAnswerAfterGenerationMarksStale(t *testing.T) {
	repo := newMemoryProfileRepo("q1")
	svc := NewService(repo, &recordingGenerator{}, nil, nil)

	_, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "yes",
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkGenerated(context.Background(), 1, "site-a"))

	before, err := svc.Profile(context.Background(), 1, "site-a")
	require.NoError(t, err)
	require.False(t, before.Stale())

	profile, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "changed",
	})
	require.NoError(t, err)
	require.Equal(t, StatusChecklistGenerated, profile.Status)
	require.True(t, profile.Stale())
}

func TestEditAnswerDoesNotRegenerate(t *testing.T) {
	repo := newMemoryProfileRepo("q1")
	gen := &recordingGenerator{}
	svc := NewService(repo, gen, nil, nil)

	_, err := svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "yes",
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkGenerated(context.Background(), 1, "site-a"))

	_, err = svc.EditAnswer(context.Background(), AnswerInput{
		CompanyID: 1, SiteID: "site-a", QuestionID: "q1", Value: "changed",
	})
	require.NoError(t, err)
	// Generation fired exactly once, on completion.
	require.Equal(t, []string{"site-a"}, gen.calls)
}

func TestStaleFlag(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		profile SiteProfile
		want    bool
	}{
		{"not generated", SiteProfile{Status: StatusComplete, AnswersUpdatedAt: base.Add(time.Hour)}, false},
		{"generated, untouched", SiteProfile{Status: StatusChecklistGenerated, AnswersUpdatedAt: base, GeneratedAt: base.Add(time.Hour)}, false},
		{"generated, edited after", SiteProfile{Status: StatusChecklistGenerated, AnswersUpdatedAt: base.Add(2 * time.Hour), GeneratedAt: base.Add(time.Hour)}, true},
		{"generated marker missing", SiteProfile{Status: StatusChecklistGenerated, AnswersUpdatedAt: base.Add(time.Hour)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.profile.Stale())
		})
	}
}
