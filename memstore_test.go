package mitra

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

// memStore is an in-memory IDataSource that keeps the conditional-update
// semantics of the SQL store, for scenario and concurrency tests.
type memStore struct {
	mu       sync.Mutex
	partners map[string]*model.Partner
	topUps   map[string]*model.TopUp
	credits  []model.Credit
	chats    []model.ChatMessage
	admins   map[string]*model.AdminCredential
}

func newMemStore() *memStore {
	return &memStore{
		partners: map[string]*model.Partner{},
		topUps:   map[string]*model.TopUp{},
		admins:   map[string]*model.AdminCredential{},
	}
}

func (s *memStore) addPartner(id, name string, balance int64, status model.VerificationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.partners[id] = &model.Partner{PartnerID: id, Name: name, Balance: balance, VerificationStatus: status, CreatedAt: now, UpdatedAt: now}
}

func (s *memStore) addTopUp(id, partnerID string, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topUps[id] = &model.TopUp{TopUpID: id, PartnerID: partnerID, Amount: amount, Status: model.TopUpPending, CreatedAt: time.Now()}
}

func (s *memStore) balance(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partners[id].Balance
}

func (s *memStore) status(id string) model.TopUpStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topUps[id].Status
}

func (s *memStore) creditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.credits)
}

func (s *memStore) GetPartnerByID(_ context.Context, id string) (*model.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("partner with ID '%s' not found", id), nil)
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GetAllPartners(_ context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Partner
	for _, p := range s.partners {
		if matchesPartner(p, filters) {
			out = append(out, *p)
		}
	}
	if opts != nil && opts.SortBy == "name" {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return window(out, limit, offset), nil
}

func matchesPartner(p *model.Partner, filters *filter.QueryFilterSet) bool {
	if filters == nil {
		return true
	}
	for _, f := range filters.Filters {
		if f.Field == "verification_status" && string(p.VerificationStatus) != f.Value {
			return false
		}
	}
	return true
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *memStore) SearchPartnersByName(_ context.Context, terms []string, limit int) ([]model.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Partner{}
	for _, p := range s.partners {
		for _, term := range terms {
			if strings.Contains(strings.ToLower(p.Name), term) {
				out = append(out, *p)
				break
			}
		}
	}
	return window(out, limit, 0), nil
}

func (s *memStore) VerifyPartner(_ context.Context, id string) (*model.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "partner not found", nil)
	}
	if p.IsVerified() {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "partner is already verified", nil)
	}
	p.VerificationStatus = model.PartnerVerified
	cp := *p
	return &cp, nil
}

func (s *memStore) DeletePartner(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[id]; !ok {
		return apierror.NewAPIError(apierror.ErrNotFound, "partner not found", nil)
	}
	for _, t := range s.topUps {
		if t.PartnerID == id && t.Status == model.TopUpPending {
			return apierror.NewAPIError(apierror.ErrConflict, "partner has pending top-ups", nil)
		}
	}
	delete(s.partners, id)
	return nil
}

func (s *memStore) GetTopUp(_ context.Context, id string) (*model.TopUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topUps[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "top-up not found", nil)
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) GetAllTopUps(_ context.Context, filters *filter.QueryFilterSet, _ *filter.QueryOptions, limit, offset int) ([]model.TopUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.TopUp{}
	for _, t := range s.topUps {
		keep := true
		if filters != nil {
			for _, f := range filters.Filters {
				if f.Field == "status" && string(t.Status) != f.Value {
					keep = false
				}
			}
		}
		if keep {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, limit, offset), nil
}

func (s *memStore) ApproveTopUp(_ context.Context, st model.Settlement) (*model.TopUp, *model.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topUps[st.TopUpID]
	if !ok || t.Status != model.TopUpPending {
		return nil, nil, apierror.NewAPIError(apierror.ErrConflict, "top-up is not pending", nil)
	}
	p, ok := s.partners[st.PartnerID]
	if !ok {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, "partner not found", nil)
	}
	if t.PartnerID != st.PartnerID || t.Amount != st.Amount {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidInput, "settlement does not match the request", nil)
	}
	p.Balance += st.Amount
	t.Status = model.TopUpApproved
	t.SettledBy = st.Actor
	credit := model.NewCredit(st.CreditID(), p.PartnerID, model.CreditSourceTopUp, st.Amount, p.Balance, model.TopUpCreditReference(st.TopUpID), st.Actor)
	credit.TopUpID = st.TopUpID
	s.credits = append(s.credits, *credit)
	cp := *t
	return &cp, credit, nil
}

func (s *memStore) RejectTopUp(_ context.Context, id, reason, actor string) (*model.TopUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topUps[id]
	if !ok || t.Status != model.TopUpPending {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "top-up is not pending", nil)
	}
	t.Status = model.TopUpRejected
	t.RejectionReason = reason
	t.SettledBy = actor
	cp := *t
	return &cp, nil
}

func (s *memStore) CreditPartner(_ context.Context, m model.ManualCredit) (*model.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[m.PartnerID]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "partner not found", nil)
	}
	for _, c := range s.credits {
		if c.Reference == m.Reference {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("credit with reference '%s' already exists", m.Reference), nil)
		}
	}
	p.Balance += m.Amount
	credit := model.NewCredit(model.GenerateUUIDWithSuffix("cr"), p.PartnerID, model.CreditSourceManual, m.Amount, p.Balance, m.Reference, m.Actor)
	s.credits = append(s.credits, *credit)
	return credit, nil
}

func (s *memStore) GetCredits(_ context.Context, filters *filter.QueryFilterSet, _ *filter.QueryOptions, limit, offset int) ([]model.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Credit{}
	for i := len(s.credits) - 1; i >= 0; i-- {
		c := s.credits[i]
		if filters != nil && len(filters.Filters) > 0 && c.PartnerID != filters.Filters[0].Value {
			continue
		}
		out = append(out, c)
	}
	return window(out, limit, offset), nil
}

func (s *memStore) GetChatMessages(_ context.Context, _ *filter.QueryFilterSet, _ *filter.QueryOptions, limit, offset int) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, 0, len(s.chats))
	for i := len(s.chats) - 1; i >= 0; i-- {
		out = append(out, s.chats[i])
	}
	return window(out, limit, offset), nil
}

func (s *memStore) GetConversation(_ context.Context, partnerID string, limit, offset int) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newest := []model.ChatMessage{}
	for i := len(s.chats) - 1; i >= 0; i-- {
		if c := s.chats[i]; c.FromID == partnerID || c.ToID == partnerID {
			newest = append(newest, c)
		}
	}
	page := window(newest, limit, offset)
	out := make([]model.ChatMessage, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		out = append(out, page[i])
	}
	return out, nil
}

func (s *memStore) CreateChatMessage(_ context.Context, message model.ChatMessage) (*model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, message)
	return &message, nil
}

func (s *memStore) GetInvoices(_ context.Context, _ model.InvoiceFilter) ([]model.Invoice, error) {
	return []model.Invoice{}, nil
}

func (s *memStore) CreateAdmin(_ context.Context, admin model.AdminCredential) (*model.AdminCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[admin.Username]; ok {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "admin already exists", nil)
	}
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = admin.CreatedAt
	s.admins[admin.Username] = &admin
	cp := admin
	return &cp, nil
}

func (s *memStore) GetAdminByUsername(_ context.Context, username string) (*model.AdminCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[username]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "admin not found", nil)
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) UpdateAdminPassword(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[username]
	if !ok {
		return apierror.NewAPIError(apierror.ErrNotFound, "admin not found", nil)
	}
	a.PasswordHash = passwordHash
	return nil
}

func (s *memStore) CountAdmins(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.admins)), nil
}

func (s *memStore) GetDashboardStats(_ context.Context) (*model.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.DashboardStats{TotalPartners: int64(len(s.partners))}
	for _, p := range s.partners {
		stats.TotalBalance += p.Balance
		if p.IsVerified() {
			stats.VerifiedPartners++
		}
	}
	for _, t := range s.topUps {
		if t.Status == model.TopUpPending {
			stats.PendingTopUps++
		}
	}
	return stats, nil
}
