package domain

import (
	"strings"
	"time"
)

type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestDenied   AccessRequestStatus = "denied"
)

func ParseAccessRequestStatus(s string) (AccessRequestStatus, bool) {
	switch AccessRequestStatus(s) {
	case AccessRequestPending, AccessRequestApproved, AccessRequestDenied:
		return AccessRequestStatus(s), true
	default:
		return "", false
	}
}

// CanTransition reports whether a request may move from s to next. Only
// pending requests can be decided, and a decision is final.
func (s AccessRequestStatus) CanTransition(next AccessRequestStatus) bool {
	return s == AccessRequestPending && (next == AccessRequestApproved || next == AccessRequestDenied)
}

type AccessRequest struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Email            string              `json:"email"`
	Phone            string              `json:"phone"`
	Address          string              `json:"address"`
	Message          *string             `json:"message,omitempty"`
	Status           AccessRequestStatus `json:"status"`
	AdminNotes       *string             `json:"adminNotes,omitempty"`
	InvitationCode   *string             `json:"invitationCode,omitempty"`
	InvitationSentAt *time.Time          `json:"invitationSentAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	ApprovedAt       *time.Time          `json:"approvedAt,omitempty"`
	ApprovedBy       *string             `json:"approvedBy,omitempty"`
}

// SplitName breaks the free-text name into first and last parts for guest
// provisioning. Everything after the first word is the last name.
func (a *AccessRequest) SplitName() (first, last string) {
	fields := strings.Fields(a.Name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

type CreateAccessRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"required,min=10,max=20,phone"`
	Address   string `json:"address" validate:"required,min=10,max=500"`
	Message   string `json:"message" validate:"max=1000"`
	Honeypot  string `json:"honeypot"`
	Timestamp int64  `json:"timestamp" validate:"required"`
}

func (r *CreateAccessRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.Message = strings.TrimSpace(r.Message)
}

// Validate rejects bots before looking at anything else, then checks field
// bounds, then the client timestamp (Unix milliseconds) against the accepted
// window around now.
func (r *CreateAccessRequest) Validate(now time.Time, maxAge, maxSkew time.Duration) error {
	if r.Honeypot != "" {
		return ErrBotDetected
	}
	if err := validateStruct(r).orNil(); err != nil {
		return err
	}
	submitted := time.UnixMilli(r.Timestamp)
	if submitted.Before(now.Add(-maxAge)) || submitted.After(now.Add(maxSkew)) {
		return ErrStaleSubmission
	}
	return nil
}

type AccessRequestCreated struct {
	Message string              `json:"message"`
	ID      string              `json:"id"`
	Status  AccessRequestStatus `json:"status"`
}

type DecideAccessRequest struct {
	AdminNotes string `json:"adminNotes" validate:"max=1000"`
}

func (r *DecideAccessRequest) Normalize() {
	r.AdminNotes = strings.TrimSpace(r.AdminNotes)
}

func (r *DecideAccessRequest) Validate() error {
	return validateStruct(r).orNil()
}

// ApprovalResult is returned to the admin after an approval commits.
type ApprovalResult struct {
	Request        *AccessRequest `json:"request"`
	GuestID        string         `json:"guestId"`
	InvitationSent bool           `json:"invitationSent"`
}
