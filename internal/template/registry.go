// Package template implements the render collaborator: named message
// templates with {placeholder} substitution from contact fields.
package template

import (
    "strings"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
)

// Registry holds named template bodies. It is populated at startup and
// read-only afterwards.
type Registry struct {
    templates map[string]string
}

func NewRegistry() *Registry {
    return &Registry{templates: make(map[string]string)}
}

// Register adds or replaces a template body.
func (r *Registry) Register(ref, body string) {
    r.templates[ref] = body
}

// Has reports whether a template ref is known. Campaign creation uses this
// to fail fast instead of discovering a missing template mid-sequence.
func (r *Registry) Has(ref string) bool {
    _, ok := r.templates[ref]
    return ok
}

// Render substitutes contact fields into the template. Unknown refs and
// placeholders the contact cannot fill yield a TemplateError.
func (r *Registry) Render(ref string, c *model.Contact, variant string) (string, error) {
    body, ok := r.templates[ref]
    if !ok {
        if variant != "" {
            // Variant-specific body falls back to the base template.
            if vb, vok := r.templates[ref+":"+variant]; vok {
                body, ok = vb, true
            }
        }
        if !ok {
            return "", &appErrors.TemplateError{Ref: ref, Reason: "unknown template reference"}
        }
    } else if variant != "" {
        if vb, vok := r.templates[ref+":"+variant]; vok {
            body = vb
        }
    }

    message := body
    message = replace(message, "{name}", c.Name)
    message = replace(message, "{email}", c.Email)
    message = replace(message, "{phone}", c.Phone)
    message = replace(message, "{location}", c.Location)

    if i := strings.Index(message, "{"); i >= 0 {
        if j := strings.Index(message[i:], "}"); j >= 0 {
            return "", &appErrors.TemplateError{
                Ref:    ref,
                Reason: "unresolved placeholder " + message[i:i+j+1],
            }
        }
    }
    return message, nil
}

func replace(template, placeholder, value string) string {
    if value == "" {
        value = "<unknown>"
    }
    return strings.ReplaceAll(template, placeholder, value)
}

// Builtin returns a registry seeded with the stock outreach templates.
func Builtin() *Registry {
    r := NewRegistry()
    r.Register("email_welcome_luxury",
        "Hi {name}, thank you for your interest in our luxury staging services in {location}. "+
            "Our staged properties typically sell for 10-15% above market value.")
    r.Register("email_welcome_luxury:modern_minimal",
        "Hi {name} - clean lines, open space, faster sales. See what modern staging does for "+
            "listings in {location}.")
    r.Register("email_welcome_luxury:classic_elegant",
        "Dear {name}, timeless interiors leave lasting impressions. Discover how our classic "+
            "staging elevates properties in {location}.")
    r.Register("whatsapp_portfolio",
        "Hi {name}, I wanted to follow up and share our staging portfolio for {location}. "+
            "Would you be open to a quick chat?")
    r.Register("sms_checkin",
        "Hi {name}, just checking if you had a chance to consider our staging services. "+
            "We currently have availability in {location}.")
    r.Register("email_portfolio",
        "Hi {name}, here is a look at our latest staged properties in {location}.")
    r.Register("email_portfolio:lifestyle_focus",
        "Hi {name}, picture your buyers living here: our lifestyle-led staging in {location}.")
    r.Register("email_portfolio:design_focus",
        "Hi {name}, design sells: a close look at the interiors behind our {location} portfolio.")
    r.Register("whatsapp_feedback",
        "Hi {name}, did anything in the portfolio catch your eye? Happy to answer questions.")
    r.Register("email_referral",
        "Hi {name}, you've seen what staging does for a listing. Know a colleague in "+
            "{location} who'd benefit from an introduction?")
    r.Register("sms_referral_thanks",
        "Hi {name}, thank you for the referral. We really appreciate it.")
    return r
}
