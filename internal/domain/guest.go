package domain

import (
	"strings"
	"time"
)

type RSVPStatus string

const (
	RSVPPending      RSVPStatus = "pending"
	RSVPAttending    RSVPStatus = "attending"
	RSVPNotAttending RSVPStatus = "not_attending"
)

func ParseRSVPStatus(s string) (RSVPStatus, bool) {
	switch RSVPStatus(s) {
	case RSVPPending, RSVPAttending, RSVPNotAttending:
		return RSVPStatus(s), true
	default:
		return "", false
	}
}

type MealPreference string

const (
	MealChicken    MealPreference = "chicken"
	MealBeef       MealPreference = "beef"
	MealFish       MealPreference = "fish"
	MealVegetarian MealPreference = "vegetarian"
	MealVegan      MealPreference = "vegan"
	MealKids       MealPreference = "kids"
)

type Guest struct {
	ID                  string          `json:"id"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	Email               *string         `json:"email,omitempty"`
	Phone               *string         `json:"phone,omitempty"`
	InvitationCode      string          `json:"-"`
	RSVPStatus          RSVPStatus      `json:"rsvpStatus"`
	MealPreference      *MealPreference `json:"mealPreference,omitempty"`
	DietaryRestrictions *string         `json:"dietaryRestrictions,omitempty"`
	PlusOneAllowed      bool            `json:"plusOneAllowed"`
	PlusOneName         *string         `json:"plusOneName,omitempty"`
	PlusOneMeal         *MealPreference `json:"plusOneMeal,omitempty"`
	Notes               *string         `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	RSVPSubmittedAt     *time.Time      `json:"rsvpSubmittedAt,omitempty"`
}

func (g *Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// GuestSnapshot is what a session holder sees: identity plus current RSVP
// state. The invitation code is never echoed back.
type GuestSnapshot struct {
	ID                  string          `json:"id"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	Email               *string         `json:"email,omitempty"`
	RSVPStatus          RSVPStatus      `json:"rsvpStatus"`
	MealPreference      *MealPreference `json:"mealPreference,omitempty"`
	DietaryRestrictions *string         `json:"dietaryRestrictions,omitempty"`
	PlusOneAllowed      bool            `json:"plusOneAllowed"`
	PlusOneName         *string         `json:"plusOneName,omitempty"`
	PlusOneMeal         *MealPreference `json:"plusOneMeal,omitempty"`
	RSVPSubmittedAt     *time.Time      `json:"rsvpSubmittedAt,omitempty"`
}

func (g *Guest) Snapshot() *GuestSnapshot {
	return &GuestSnapshot{
		ID:                  g.ID,
		FirstName:           g.FirstName,
		LastName:            g.LastName,
		Email:               g.Email,
		RSVPStatus:          g.RSVPStatus,
		MealPreference:      g.MealPreference,
		DietaryRestrictions: g.DietaryRestrictions,
		PlusOneAllowed:      g.PlusOneAllowed,
		PlusOneName:         g.PlusOneName,
		PlusOneMeal:         g.PlusOneMeal,
		RSVPSubmittedAt:     g.RSVPSubmittedAt,
	}
}

type CodeValidationRequest struct {
	Code string `json:"code"`
}

type RecoveryRequest struct {
	Email string `json:"email"`
}

type SessionResponse struct {
	Guest        *GuestSnapshot `json:"guest"`
	SessionToken string         `json:"sessionToken"`
	ExpiresIn    int64          `json:"expiresIn"`
}

type RSVPRequest struct {
	Attending           RSVPStatus     `json:"attending" validate:"required,oneof=attending not_attending"`
	MealPreference      MealPreference `json:"mealPreference" validate:"omitempty,oneof=chicken beef fish vegetarian vegan kids"`
	DietaryRestrictions string         `json:"dietaryRestrictions" validate:"max=500"`
	PlusOneName         string         `json:"plusOneName" validate:"max=100"`
	PlusOneMeal         MealPreference `json:"plusOneMeal" validate:"omitempty,oneof=chicken beef fish vegetarian vegan kids"`
	Notes               string         `json:"notes" validate:"max=1000"`
}

func (r *RSVPRequest) Normalize() {
	r.Attending = RSVPStatus(strings.TrimSpace(string(r.Attending)))
	r.MealPreference = MealPreference(strings.ToLower(strings.TrimSpace(string(r.MealPreference))))
	r.PlusOneMeal = MealPreference(strings.ToLower(strings.TrimSpace(string(r.PlusOneMeal))))
	r.DietaryRestrictions = strings.TrimSpace(r.DietaryRestrictions)
	r.PlusOneName = strings.TrimSpace(r.PlusOneName)
	r.Notes = strings.TrimSpace(r.Notes)
}

// Validate checks field formats and the attendance-dependent requirements:
// an attending guest must pick a meal, and a named plus-one needs a meal too.
func (r *RSVPRequest) Validate() error {
	verr := validateStruct(r)
	if r.Attending == RSVPAttending {
		if r.MealPreference == "" {
			verr.add("mealPreference", "is required when attending")
		}
		if r.PlusOneName != "" && r.PlusOneMeal == "" {
			verr.add("plusOneMeal", "is required when bringing a plus-one")
		}
		if r.PlusOneMeal != "" && r.PlusOneName == "" {
			verr.add("plusOneName", "is required when a plus-one meal is selected")
		}
	}
	return verr.orNil()
}

// ApplyTo copies the RSVP onto the guest. Declining clears meal and plus-one
// choices so stale selections do not reach the caterer's counts.
func (r *RSVPRequest) ApplyTo(g *Guest, now time.Time) {
	g.RSVPStatus = r.Attending
	g.DietaryRestrictions = optional(r.DietaryRestrictions)
	g.Notes = optional(r.Notes)
	g.RSVPSubmittedAt = &now
	g.UpdatedAt = now

	if r.Attending != RSVPAttending {
		g.MealPreference = nil
		g.PlusOneName = nil
		g.PlusOneMeal = nil
		return
	}
	meal := r.MealPreference
	g.MealPreference = &meal
	if r.PlusOneName == "" {
		g.PlusOneName = nil
		g.PlusOneMeal = nil
		return
	}
	plusOneMeal := r.PlusOneMeal
	g.PlusOneName = optional(r.PlusOneName)
	g.PlusOneMeal = &plusOneMeal
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
