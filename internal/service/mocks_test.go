package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/mailer"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
)

// ---------- Mocks ----------

type mockGuestRepo struct {
	mu      sync.Mutex
	guests  map[string]*domain.Guest // id -> guest
	findErr error
	lookups int
}

func newMockGuestRepo(guests ...*domain.Guest) *mockGuestRepo {
	m := &mockGuestRepo{guests: make(map[string]*domain.Guest)}
	for _, g := range guests {
		m.guests[g.ID] = g
	}
	return m
}

func (m *mockGuestRepo) FindByCode(_ context.Context, code string) (*domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, g := range m.guests {
		if g.InvitationCode == code {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockGuestRepo) FindByEmail(_ context.Context, email string) (*domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, g := range m.guests {
		if g.Email != nil && strings.EqualFold(*g.Email, email) {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockGuestRepo) FindByID(_ context.Context, id string) (*domain.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	g, ok := m.guests[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
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
	createErr error
	created   int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*domain.EmailTemplate)}
}

func (m *mockTemplateRepo) FindActiveByType(_ context.Context, templateType string) (*domain.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templates[templateType], nil
}

func (m *mockTemplateRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created++
	t.ID = "tpl-" + t.TemplateType
	m.templates[t.TemplateType] = t
	return nil
}

type mockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newMockLimiter() *mockLimiter {
	return &mockLimiter{counts: make(map[string]int)}
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, requests int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return true, m.err
	}
	m.counts[key]++
	return m.counts[key] <= requests, nil
}

type mockMailer struct {
	mu           sync.Mutex
	enabled      bool
	enabledCalls int
	sent         []*mailer.Message
	sendErr      error
	block        chan struct{} // when set, Send waits on it and ignores ctx
	panicMsg     string
}

func (m *mockMailer) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabledCalls++
	return m.enabled
}

func (m *mockMailer) Send(_ context.Context, msg *mailer.Message) (string, error) {
	if m.block != nil {
		<-m.block
	}
	if m.panicMsg != "" {
		panic(m.panicMsg)
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

type mockPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

type mockAccessRequestRepo struct {
	mu         sync.Mutex
	requests   map[string]*domain.AccessRequest
	order      []string
	nextID     int
	now        func() time.Time
	collisions int // Approve returns ErrCodeCollision this many times first
	approved   []*domain.Guest
}

func newMockAccessRequestRepo(now func() time.Time) *mockAccessRequestRepo {
	return &mockAccessRequestRepo{requests: make(map[string]*domain.AccessRequest), now: now}
}

func (m *mockAccessRequestRepo) Create(_ context.Context, req *domain.AccessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = fmt.Sprintf("req-%d", m.nextID)
	req.CreatedAt = m.now()
	cp := *req
	m.requests[req.ID] = &cp
	m.order = append(m.order, req.ID)
	return nil
}

func (m *mockAccessRequestRepo) FindRecentByEmail(_ context.Context, email string, since time.Time) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		r := m.requests[id]
		if strings.EqualFold(r.Email, email) && !r.CreatedAt.Before(since) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockAccessRequestRepo) FindByID(_ context.Context, id string) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockAccessRequestRepo) List(_ context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AccessRequest{}
	for _, id := range m.order {
		r := m.requests[id]
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, *r)
	}
	if offset >= len(out) {
		return []domain.AccessRequest{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *mockAccessRequestRepo) decide(id string, next domain.AccessRequestStatus, by string, notes *string) (*domain.AccessRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if !r.Status.CanTransition(next) {
		return nil, domain.ErrNotPending
	}
	now := m.now()
	r.Status = next
	r.ApprovedAt = &now
	r.ApprovedBy = &by
	if notes != nil {
		r.AdminNotes = notes
	}
	return r, nil
}

func (m *mockAccessRequestRepo) Approve(_ context.Context, id, approvedBy string, notes *string, guest *domain.Guest) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collisions > 0 {
		m.collisions--
		return nil, domain.ErrCodeCollision
	}
	r, err := m.decide(id, domain.AccessRequestApproved, approvedBy, notes)
	if err != nil {
		return nil, err
	}
	code := guest.InvitationCode
	r.InvitationCode = &code
	guest.ID = "guest-" + id
	m.approved = append(m.approved, guest)
	cp := *r
	return &cp, nil
}

func (m *mockAccessRequestRepo) Deny(_ context.Context, id, deniedBy string, notes *string) (*domain.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.decide(id, domain.AccessRequestDenied, deniedBy, notes)
	if err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (m *mockAccessRequestRepo) MarkInvitationSent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return errors.New("missing request")
	}
	r.InvitationSentAt = &at
	return nil
}

// ---------- Fixtures ----------

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			GuestSessionTTL: time.Hour,
			AdminTokenTTL:   time.Hour,
		},
		Email: config.EmailConfig{SendTimeout: time.Second},
		Site:  config.SiteConfig{BaseURL: "https://example.com", CoupleNames: "Ashton & Cheyenne"},
		Intake: config.IntakeConfig{
			DuplicateWindow:  24 * time.Hour,
			MaxSubmissionAge: time.Hour,
			MaxClockSkew:     5 * time.Minute,
		},
		RateLimit: config.RateLimitConfig{
			CodeAttempts:       10,
			CodeWindow:         15 * time.Minute,
			RecoverySends:      3,
			RecoverySendWindow: time.Hour,
		},
		Storage: config.StorageConfig{UploadPrefix: "guest-uploads", URLExpiry: 5 * time.Minute},
	}
}

func testGuest() *domain.Guest {
	email := "guest@example.com"
	return &domain.Guest{
		ID:             "11111111-1111-1111-1111-111111111111",
		FirstName:      "Sam",
		LastName:       "Guest",
		Email:          &email,
		InvitationCode: "ashtonandcheyenne1",
		RSVPStatus:     domain.RSVPPending,
	}
}
