package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/events"
)

type accessFixture struct {
	svc       *accessRequestService
	repo      *mockAccessRequestRepo
	mailer    *mockMailer
	publisher *mockPublisher
	clock     *time.Time
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	f := &accessFixture{
		repo:      newMockAccessRequestRepo(now),
		mailer:    &mockMailer{enabled: true},
		publisher: &mockPublisher{},
		clock:     &clock,
	}
	f.svc = NewAccessRequestService(f.repo, newMockTemplateRepo(), f.mailer, f.publisher, testConfig()).(*accessRequestService)
	f.svc.now = now
	return f
}

func (f *accessFixture) request(email string) *domain.CreateAccessRequest {
	return &domain.CreateAccessRequest{
		Name:      "Taylor Guest",
		Email:     email,
		Phone:     "555-123-4567",
		Address:   "123 Main Street, Springfield",
		Message:   "We met at the lake house!",
		Timestamp: f.clock.Add(-30 * time.Second).UnixMilli(),
	}
}

func TestSubmit_QueuesPendingRequest(t *testing.T) {
	f := newAccessFixture(t)

	ar, err := f.svc.Submit(context.Background(), f.request("Taylor@Example.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ar.Status != domain.AccessRequestPending || ar.ID == "" {
		t.Fatalf("unexpected request %+v", ar)
	}
	if ar.Email != "taylor@example.com" {
		t.Fatalf("email not normalized: %q", ar.Email)
	}
	if len(f.publisher.subjects) != 1 || f.publisher.subjects[0] != events.AccessRequestSubmitted {
		t.Fatalf("unexpected events %v", f.publisher.subjects)
	}
}

func TestSubmit_HoneypotNeverQueued(t *testing.T) {
	f := newAccessFixture(t)
	req := f.request("bot@example.com")
	req.Honeypot = "gotcha"

	if _, err := f.svc.Submit(context.Background(), req); !errors.Is(err, domain.ErrBotDetected) {
		t.Fatalf("expected ErrBotDetected, got %v", err)
	}
	if len(f.repo.requests) != 0 {
		t.Fatal("bot submission was stored")
	}
}

func TestSubmit_DuplicateWindow(t *testing.T) {
	f := newAccessFixture(t)

	if _, err := f.svc.Submit(context.Background(), f.request("dup@example.com")); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	*f.clock = f.clock.Add(23 * time.Hour)
	if _, err := f.svc.Submit(context.Background(), f.request("DUP@example.com")); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest inside window, got %v", err)
	}

	*f.clock = f.clock.Add(2 * time.Hour)
	if _, err := f.svc.Submit(context.Background(), f.request("dup@example.com")); err != nil {
		t.Fatalf("submit after window: %v", err)
	}
	if len(f.repo.requests) != 2 {
		t.Fatalf("expected 2 stored requests, got %d", len(f.repo.requests))
	}
}

func TestSubmit_StaleTimestamp(t *testing.T) {
	f := newAccessFixture(t)
	req := f.request("late@example.com")
	req.Timestamp = f.clock.Add(-61 * time.Minute).UnixMilli()

	if _, err := f.svc.Submit(context.Background(), req); !errors.Is(err, domain.ErrStaleSubmission) {
		t.Fatalf("expected ErrStaleSubmission, got %v", err)
	}
}

func TestApprove_ProvisionsGuestAndSendsInvitation(t *testing.T) {
	f := newAccessFixture(t)
	ar, err := f.svc.Submit(context.Background(), f.request("new@example.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result, err := f.svc.Approve(context.Background(), ar.ID, "admin@example.com", &domain.DecideAccessRequest{AdminNotes: " cousin "})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if result.Request.Status != domain.AccessRequestApproved || result.Request.InvitationCode == nil {
		t.Fatalf("unexpected approved request %+v", result.Request)
	}
	if !domain.IsValidCodeFormat(*result.Request.InvitationCode) {
		t.Fatalf("generated code %q is not canonical", *result.Request.InvitationCode)
	}
	if !result.InvitationSent || result.Request.InvitationSentAt == nil {
		t.Fatal("expected invitation sent and stamped")
	}
	if f.mailer.sentCount() != 1 || !strings.Contains(f.mailer.sent[0].Text, *result.Request.InvitationCode) {
		t.Fatal("invitation email should carry the new code")
	}
	guest := f.repo.approved[0]
	if guest.FirstName != "Taylor" || guest.LastName != "Guest" || guest.RSVPStatus != domain.RSVPPending {
		t.Fatalf("unexpected provisioned guest %+v", guest)
	}
	if result.Request.AdminNotes == nil || *result.Request.AdminNotes != "cousin" {
		t.Fatal("expected trimmed admin notes")
	}
}

func TestApprove_RetriesCodeCollision(t *testing.T) {
	f := newAccessFixture(t)
	ar, _ := f.svc.Submit(context.Background(), f.request("retry@example.com"))
	f.repo.collisions = 2

	codes := 0
	f.svc.generateCode = func() (string, error) {
		codes++
		return domain.GenerateCode()
	}

	if _, err := f.svc.Approve(context.Background(), ar.ID, "admin@example.com", nil); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if codes != 3 {
		t.Fatalf("expected 3 generated codes, got %d", codes)
	}
}

func TestApprove_MailFailureKeepsApproval(t *testing.T) {
	f := newAccessFixture(t)
	f.mailer.sendErr = errors.New("provider down")
	ar, _ := f.svc.Submit(context.Background(), f.request("nomail@example.com"))

	result, err := f.svc.Approve(context.Background(), ar.ID, "admin@example.com", nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if result.InvitationSent || result.Request.InvitationSentAt != nil {
		t.Fatal("invitation should not be marked sent")
	}
}

func TestDecisionsAreFinal(t *testing.T) {
	f := newAccessFixture(t)
	ar, _ := f.svc.Submit(context.Background(), f.request("final@example.com"))

	if _, err := f.svc.Deny(context.Background(), ar.ID, "admin@example.com", nil); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), ar.ID, "admin@example.com", nil); !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("expected ErrNotPending on approve after deny, got %v", err)
	}
	if _, err := f.svc.Deny(context.Background(), ar.ID, "admin@example.com", nil); !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("expected ErrNotPending on second deny, got %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), "req-missing", "admin@example.com", nil); !errors.Is(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newAccessFixture(t)
	a, _ := f.svc.Submit(context.Background(), f.request("a@example.com"))
	_, _ = f.svc.Submit(context.Background(), f.request("b@example.com"))
	_, _ = f.svc.Deny(context.Background(), a.ID, "admin@example.com", nil)

	pending := domain.AccessRequestPending
	list, err := f.svc.List(context.Background(), &pending, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Email != "b@example.com" {
		t.Fatalf("unexpected pending list %+v", list)
	}
}
