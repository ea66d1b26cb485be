package handlers_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/mailer"
)

// ---------- Mocks ----------

type mockGuestRepo struct {
	mu     sync.Mutex
	guests map[string]*domain.Guest
}

func newMockGuestRepo() *mockGuestRepo {
	return &mockGuestRepo{guests: make(map[string]*domain.Guest)}
}

func (m *mockGuestRepo) add(g *domain.Guest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guests[g.ID] = g
}

func (m *mockGuestRepo) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guests, id)
}

func (m *mockGuestRepo) FindByCode(_ context.Context, code string) (*domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.guests {
		if g.InvitationCode == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockGuestRepo) FindByEmail(_ context.Context, email string) (*domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.guests {
		if g.Email != nil && strings.EqualFold(*g.Email, email) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockGuestRepo) FindByID(_ context.Context, id string) (*domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.guests[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (m *mockGuestRepo) UpdateRSVP(_ context.Context, g *domain.Guest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.guests[g.ID]; !ok {
		return domain.ErrGuestNotFound
	}
	cp := *g
	m.guests[g.ID] = &cp
	return nil
}

type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*domain.EmailTemplate
}

func (m *mockTemplateRepo) FindActiveByType(_ context.Context, templateType string) (*domain.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templates[templateType], nil
}

func (m *mockTemplateRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = "tpl-" + t.TemplateType
	m.templates[t.TemplateType] = t
	return nil
}

type mockAccessRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.AccessRequest
	guests   *mockGuestRepo
	nextID   int
}

func (m *mockAccessRequestRepo) Create(_ context.Context, req *domain.AccessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
	req.CreatedAt = time.Now()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *mockAccessRequestRepo) FindRecentByEmail(_ context.Context, email string, since time.Time) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if strings.EqualFold(r.Email, email) && !r.CreatedAt.Before(since) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockAccessRequestRepo) FindByID(_ context.Context, id string) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *mockAccessRequestRepo) List(_ context.Context, status *domain.AccessRequestStatus, _, _ int) ([]domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AccessRequest{}
	for _, r := range m.requests {
		if status == nil || r.Status == *status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockAccessRequestRepo) Approve(_ context.Context, id, approvedBy string, notes *string, guest *domain.Guest) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if !r.Status.CanTransition(domain.AccessRequestApproved) {
		return nil, domain.ErrNotPending
	}
	guest.ID = "guest-" + id
	m.guests.add(guest)

	now := time.Now()
	code := guest.InvitationCode
	r.Status = domain.AccessRequestApproved
	r.InvitationCode = &code
	r.ApprovedAt = &now
	r.ApprovedBy = &approvedBy
	r.AdminNotes = notes
	cp := *r
	return &cp, nil
}

func (m *mockAccessRequestRepo) Deny(_ context.Context, id, deniedBy string, notes *string) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if !r.Status.CanTransition(domain.AccessRequestDenied) {
		return nil, domain.ErrNotPending
	}
	now := time.Now()
	r.Status = domain.AccessRequestDenied
	r.ApprovedAt = &now
	r.ApprovedBy = &deniedBy
	r.AdminNotes = notes
	cp := *r
	return &cp, nil
}

func (m *mockAccessRequestRepo) MarkInvitationSent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.InvitationSentAt = &at
	}
	return nil
}

type mockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, requests int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= requests, nil
}

type mockMailer struct {
	mu      sync.Mutex
	enabled bool
	sent    []*mailer.Message
	sendErr error
	block   chan struct{}
}

func (m *mockMailer) Enabled() bool { return m.enabled }

func (m *mockMailer) Send(_ context.Context, msg *mailer.Message) (string, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return "mock-id", nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockPublisher struct{}

func (mockPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (mockPublisher) Close() error { return nil }

type mockPresigner struct{}

func (mockPresigner) PresignUpload(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://photos.example.com/" + key + "?sig=1", nil
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

type panickingRecovery struct{}

func (panickingRecovery) RecoverInvitation(context.Context, string) error {
	panic("template engine exploded")
}
