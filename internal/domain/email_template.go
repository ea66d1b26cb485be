package domain

import (
	"html"
	"regexp"
	"strings"
	"time"
)

const (
	TemplateInvitationRecovery = "invitation_recovery"
	TemplateInvitation         = "invitation"
)

type EmailTemplate struct {
	ID           string    `json:"id"`
	TemplateType string    `json:"templateType"`
	Subject      string    `json:"subject"`
	HTMLBody     string    `json:"htmlBody"`
	TextBody     string    `json:"textBody"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RenderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]*)\s*\}\}`)

// Render substitutes {{key}} tokens. Unknown tokens are removed so the
// recipient never sees raw template syntax. Values are HTML-escaped in the
// HTML body only.
func (t *EmailTemplate) Render(vars map[string]string) RenderedEmail {
	return RenderedEmail{
		Subject: substitute(t.Subject, vars, false),
		HTML:    substitute(t.HTMLBody, vars, true),
		Text:    substitute(t.TextBody, vars, false),
	}
}

func substitute(body string, vars map[string]string, escape bool) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		value, ok := vars[key]
		if !ok {
			return ""
		}
		if escape {
			return html.EscapeString(value)
		}
		return value
	})
}

// GuestTemplateVars builds the variable set shared by the invitation and
// recovery emails.
func GuestTemplateVars(g *Guest, coupleNames, websiteURL string) map[string]string {
	return map[string]string{
		"first_name":      g.FirstName,
		"last_name":       g.LastName,
		"full_name":       g.FullName(),
		"invitation_code": g.InvitationCode,
		"couple_names":    coupleNames,
		"website_url":     websiteURL,
	}
}

func DefaultTemplate(templateType string) *EmailTemplate {
	switch templateType {
	case TemplateInvitation:
		return &EmailTemplate{
			TemplateType: TemplateInvitation,
			Subject:      "You're invited to the wedding of {{couple_names}}",
			HTMLBody: strings.TrimSpace(`
<h2>You're invited!</h2>
<p>Dear {{first_name}},</p>
<p>{{couple_names}} would love for you to celebrate with them.</p>
<p>Your personal invitation code is: <strong style="font-size: 20px;">{{invitation_code}}</strong></p>
<p><a href="{{website_url}}">Visit the wedding website</a> and enter your code to RSVP.</p>`),
			TextBody: strings.TrimSpace(`
Dear {{first_name}},

{{couple_names}} would love for you to celebrate with them.

Your personal invitation code is: {{invitation_code}}

Visit {{website_url}} and enter your code to RSVP.`),
			IsActive: true,
		}
	default:
		return &EmailTemplate{
			TemplateType: TemplateInvitationRecovery,
			Subject:      "Your invitation code for {{couple_names}}'s wedding",
			HTMLBody: strings.TrimSpace(`
<h2>Your invitation code</h2>
<p>Hi {{full_name}},</p>
<p>You asked us to resend your invitation code. Here it is:</p>
<p><strong style="font-size: 20px;">{{invitation_code}}</strong></p>
<p><a href="{{website_url}}">Return to the wedding website</a> and enter it to continue.</p>
<p>If you did not ask for this, you can ignore this email.</p>
<p>With love,<br>{{couple_names}}</p>`),
			TextBody: strings.TrimSpace(`
Hi {{full_name}},

You asked us to resend your invitation code. Here it is: {{invitation_code}}

Return to {{website_url}} and enter it to continue.

If you did not ask for this, you can ignore this email.

With love,
{{couple_names}}`),
			IsActive: true,
		}
	}
}
