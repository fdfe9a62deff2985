package services_test

import (
	"sync"
	"time"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
)

// In-memory repository doubles. They mirror the CAS and filter semantics of
// the Postgres implementations closely enough for the service tests.

type fakeLeadRepo struct {
	mu          sync.Mutex
	leads       map[string]*models.Lead
	failNextCAS bool
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[string]*models.Lead{}}
}

func copyLead(l *models.Lead) *models.Lead {
	cp := *l
	return &cp
}

func (r *fakeLeadRepo) Create(lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[lead.ID] = copyLead(lead)
	return nil
}

func (r *fakeLeadRepo) GetByID(id string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, nil
	}
	return copyLead(l), nil
}

func (r *fakeLeadRepo) Filter(f models.LeadFilter) ([]*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Lead
	for _, l := range r.leads {
		if f.CommunityID != "" && l.CommunityID != f.CommunityID {
			continue
		}
		if f.Stage != nil && l.Stage != *f.Stage {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if len(f.AssignedTo) > 0 {
			if l.AssignedTo == nil || !contains(f.AssignedTo, *l.AssignedTo) {
				continue
			}
		}
		out = append(out, copyLead(l))
	}
	return out, nil
}

func (r *fakeLeadRepo) UpdateStageCAS(id string, expected, target pipeline.Stage, assignee *string, enteredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextCAS {
		r.failNextCAS = false
		return false, nil
	}
	l, ok := r.leads[id]
	if !ok || l.Stage != expected {
		return false, nil
	}
	l.Stage = target
	l.StageEnteredAt = enteredAt
	if assignee != nil {
		l.AssignedTo = assignee
	}
	return true, nil
}

func (r *fakeLeadRepo) UpdateStatus(id string, status models.LeadStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leads[id]; ok {
		l.Status = status
	}
	return nil
}

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*models.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: map[string]*models.Company{}}
}

func copyCompany(c *models.Company) *models.Company {
	cp := *c
	return &cp
}

func (r *fakeCompanyRepo) Create(company *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.ID] = copyCompany(company)
	return nil
}

func (r *fakeCompanyRepo) GetByID(id string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, nil
	}
	return copyCompany(c), nil
}

func (r *fakeCompanyRepo) GetByFromLead(leadID string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.FromLead != nil && *c.FromLead == leadID {
			return copyCompany(c), nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) Filter(f models.CompanyFilter) ([]*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Company
	for _, c := range r.companies {
		if f.CommunityID != "" && c.CommunityID != f.CommunityID {
			continue
		}
		if f.Stage != nil && c.Stage != *f.Stage {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if len(f.AccountManager) > 0 {
			if c.AccountManager == nil || !contains(f.AccountManager, *c.AccountManager) {
				continue
			}
		}
		out = append(out, copyCompany(c))
	}
	return out, nil
}

func (r *fakeCompanyRepo) UpdateStageCAS(id string, expected, target pipeline.Stage, manager *string, enteredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok || c.Stage != expected {
		return false, nil
	}
	c.Stage = target
	c.StageEnteredAt = enteredAt
	if manager != nil {
		c.AccountManager = manager
	}
	return true, nil
}

func (r *fakeCompanyRepo) UpdateStatus(id string, status models.CompanyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.companies[id]; ok {
		c.Status = status
	}
	return nil
}

type fakeHistoryRepo struct {
	mu     sync.Mutex
	events []*models.StageEvent
}

func newFakeHistoryRepo() *fakeHistoryRepo { return &fakeHistoryRepo{} }

func (r *fakeHistoryRepo) Append(event *models.StageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeHistoryRepo) ListByEntity(kind pipeline.EntityKind, entityID string) ([]*models.StageEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.StageEvent
	for _, ev := range r.events {
		if ev.EntityKind == kind && ev.EntityID == entityID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) EntryTimes(kind pipeline.EntityKind, toStage pipeline.Stage, entityIDs []string) (map[string]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]time.Time{}
	for _, ev := range r.events {
		if ev.EntityKind != kind || ev.ToStage != toStage || !contains(entityIDs, ev.EntityID) {
			continue
		}
		if at, ok := out[ev.EntityID]; !ok || ev.OccurredAt.Before(at) {
			out[ev.EntityID] = ev.OccurredAt
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) ListIDsByRoles(communityID string, roles []authz.Role) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, u := range r.users {
		if communityID != "" && u.CommunityID != communityID {
			continue
		}
		for _, role := range roles {
			if u.Role == role {
				out = append(out, u.ID)
				break
			}
		}
	}
	return out, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
