package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
	"salespipe/internal/services"
)

type statsFixture struct {
	leads     *fakeLeadRepo
	companies *fakeCompanyRepo
	history   *fakeHistoryRepo
	users     *fakeUserRepo
	svc       *services.StatsService
	base      time.Time
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()
	f := &statsFixture{
		leads:     newFakeLeadRepo(),
		companies: newFakeCompanyRepo(),
		history:   newFakeHistoryRepo(),
		users:     newFakeUserRepo(),
		base:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	f.svc = services.NewStatsService(f.leads, f.companies, f.history, f.users)
	return f
}

func (f *statsFixture) addLead(stage pipeline.Stage, community string, assignee *string, value int64) *models.Lead {
	lead := &models.Lead{
		ID:             uuid.NewString(),
		CommunityID:    community,
		CompanyName:    "Lead Co",
		Stage:          stage,
		Status:         models.LeadStatusOpen,
		Priority:       models.PriorityMedium,
		EstimatedValue: decimal.NewFromInt(value),
		AssignedTo:     assignee,
		StageEnteredAt: f.base,
		CreatedAt:      f.base,
	}
	_ = f.leads.Create(lead)
	return lead
}

func (f *statsFixture) markConverted(leadID string, daysAfterCreation float64) {
	_ = f.history.Append(&models.StageEvent{
		ID:         uuid.NewString(),
		EntityKind: pipeline.KindLead,
		EntityID:   leadID,
		FromStage:  pipeline.StagePreContract,
		ToStage:    pipeline.StageContracted,
		ActorID:    "admin-1",
		OccurredAt: f.base.Add(time.Duration(daysAfterCreation * 24 * float64(time.Hour))),
	})
}

func TestStatsEmptyScope(t *testing.T) {
	f := newStatsFixture(t)

	res, err := f.svc.Compute(admin, pipeline.KindLead, services.ScopeAll)
	require.NoError(t, err)
	assert.Zero(t, res.ConversionRate, "rate is 0 over an empty scope, not NaN")
	assert.Nil(t, res.AvgDaysToConvert)
	assert.Zero(t, res.PendingCount)
	assert.True(t, res.TotalValue.IsZero())
	assert.Empty(t, res.PerStage)
}

func TestStatsConversionRateAndAvgDays(t *testing.T) {
	f := newStatsFixture(t)
	f.addLead(pipeline.StageInProgress, "community-a", strptr("mgr-1"), 1000)
	converted := f.addLead(pipeline.StageContracted, "community-a", strptr("mgr-1"), 5000)
	f.markConverted(converted.ID, 4)

	res, err := f.svc.Compute(admin, pipeline.KindLead, services.ScopeAll)
	require.NoError(t, err)

	assert.Equal(t, 1, res.PerStage[pipeline.StageInProgress])
	assert.Equal(t, 1, res.PerStage[pipeline.StageContracted])
	assert.Equal(t, 1, res.PendingCount)
	assert.InDelta(t, 50.0, res.ConversionRate, 1e-9)
	assert.True(t, decimal.NewFromInt(6000).Equal(res.TotalValue))
	require.NotNil(t, res.AvgDaysToConvert)
	assert.InDelta(t, 4.0, *res.AvgDaysToConvert, 1e-9)
}

func TestStatsRateStaysWithinBounds(t *testing.T) {
	f := newStatsFixture(t)
	for i := 0; i < 3; i++ {
		lead := f.addLead(pipeline.StageContracted, "community-a", strptr("mgr-1"), 100)
		f.markConverted(lead.ID, float64(i+1))
	}

	res, err := f.svc.Compute(admin, pipeline.KindLead, services.ScopeAll)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.ConversionRate, 1e-9)
	assert.Zero(t, res.PendingCount)
	require.NotNil(t, res.AvgDaysToConvert)
	assert.InDelta(t, 2.0, *res.AvgDaysToConvert, 1e-9)
}

func TestStatsScopeMe(t *testing.T) {
	f := newStatsFixture(t)
	f.addLead(pipeline.StageAssigned, "community-a", strptr("mgr-1"), 100)
	f.addLead(pipeline.StageAssigned, "community-a", strptr("mgr-2"), 200)
	f.addLead(pipeline.StageNew, "community-a", nil, 400)

	actor := models.Actor{ID: "mgr-1", Role: authz.RoleManagerMiddle, CommunityID: "community-a"}
	res, err := f.svc.Compute(actor, pipeline.KindLead, services.ScopeMe)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PerStage[pipeline.StageAssigned])
	assert.True(t, decimal.NewFromInt(100).Equal(res.TotalValue), "only the caller's book counts")
}

func TestStatsScopeTeamCoversRoleGroup(t *testing.T) {
	f := newStatsFixture(t)
	_ = f.users.Create(&models.User{ID: "mgr-1", Role: authz.RoleManagerJunior, CommunityID: "community-a"})
	_ = f.users.Create(&models.User{ID: "mgr-2", Role: authz.RoleManagerSenior, CommunityID: "community-a"})
	_ = f.users.Create(&models.User{ID: "crm-1", Role: authz.RoleCRMCommercial, CommunityID: "community-a"})

	f.addLead(pipeline.StageAssigned, "community-a", strptr("mgr-1"), 100)
	f.addLead(pipeline.StageInProgress, "community-a", strptr("mgr-2"), 200)
	f.addLead(pipeline.StagePendingVerification, "community-a", strptr("crm-1"), 400)

	actor := models.Actor{ID: "mgr-1", Role: authz.RoleManagerJunior, CommunityID: "community-a"}
	res, err := f.svc.Compute(actor, pipeline.KindLead, services.ScopeTeam)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PerStage[pipeline.StageAssigned])
	assert.Equal(t, 1, res.PerStage[pipeline.StageInProgress])
	assert.Zero(t, res.PerStage[pipeline.StagePendingVerification], "CRM staff are outside the manager team")
	assert.True(t, decimal.NewFromInt(300).Equal(res.TotalValue))
}

func TestStatsTenantScoping(t *testing.T) {
	f := newStatsFixture(t)
	f.addLead(pipeline.StageNew, "community-a", nil, 100)
	f.addLead(pipeline.StageNew, "community-b", nil, 200)

	crm := models.Actor{ID: "crm-1", Role: authz.RoleCRMCommercial, CommunityID: "community-a"}
	res, err := f.svc.Compute(crm, pipeline.KindLead, services.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PerStage[pipeline.StageNew])

	res, err = f.svc.Compute(admin, pipeline.KindLead, services.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PerStage[pipeline.StageNew], "global roles see every community")
}

func TestStatsCompanyKind(t *testing.T) {
	f := newStatsFixture(t)
	for _, stage := range []pipeline.Stage{pipeline.StageCreated, pipeline.StageOnboarding, pipeline.StageActive} {
		_ = f.companies.Create(&models.Company{
			ID:             uuid.NewString(),
			CommunityID:    "community-a",
			Name:           "Biz",
			Email:          "biz@example.com",
			Stage:          stage,
			Status:         models.CompanyStatusPending,
			StageEnteredAt: f.base,
			CreatedAt:      f.base,
		})
	}

	res, err := f.svc.Compute(admin, pipeline.KindCompany, services.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PerStage[pipeline.StageActive])
	assert.Equal(t, 2, res.PendingCount)
	assert.InDelta(t, 100.0/3.0, res.ConversionRate, 1e-9)
	assert.True(t, res.TotalValue.IsZero(), "companies carry no estimated value")
}

// A lead walked through the whole chain counts as a 100% conversion over a
// scope that contains only the assigned manager's book.
func TestStatsAfterFullLeadWalk(t *testing.T) {
	f := newStatsFixture(t)
	pipe := services.NewPipelineService(f.leads, f.companies, f.history)
	walkAt := f.base
	pipe.Now = func() time.Time { return walkAt }

	lead := f.addLead(pipeline.StageNew, "community-a", nil, 5000)
	steps := []struct {
		from, to pipeline.Stage
		assignee *string
	}{
		{pipeline.StageNew, pipeline.StageAssigned, strptr("mgr-1")},
		{pipeline.StageAssigned, pipeline.StageInProgress, nil},
		{pipeline.StageInProgress, pipeline.StagePendingVerification, nil},
		{pipeline.StagePendingVerification, pipeline.StageVerified, nil},
		{pipeline.StageVerified, pipeline.StagePreContract, nil},
		{pipeline.StagePreContract, pipeline.StageContracted, nil},
	}
	for _, step := range steps {
		walkAt = walkAt.Add(24 * time.Hour)
		_, err := pipe.Transition(admin, services.TransitionRequest{
			Kind: pipeline.KindLead, EntityID: lead.ID,
			Expected: step.from, Target: step.to, AssigneeID: step.assignee,
		})
		require.NoError(t, err)
	}

	actor := models.Actor{ID: "mgr-1", Role: authz.RoleManagerMiddle, CommunityID: "community-a"}
	res, err := f.svc.Compute(actor, pipeline.KindLead, services.ScopeMe)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.ConversionRate, 1e-9)
	assert.Zero(t, res.PendingCount)
	assert.True(t, decimal.NewFromInt(5000).Equal(res.TotalValue))
	require.NotNil(t, res.AvgDaysToConvert)
	assert.InDelta(t, 6.0, *res.AvgDaysToConvert, 1e-9)
}

func TestStatsUnknownScope(t *testing.T) {
	f := newStatsFixture(t)
	_, err := f.svc.Compute(admin, pipeline.KindLead, services.StatsScope("galaxy"))
	assert.Error(t, err)
}
