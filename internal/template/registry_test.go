package template_test

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/template"
)

func TestRenderSubstitutesContactFields(t *testing.T) {
    r := template.NewRegistry()
    r.Register("hello", "Hi {name}, greetings from {location}!")

    c := &model.Contact{Name: "Alice", Location: "Toronto"}
    msg, err := r.Render("hello", c, "")
    require.NoError(t, err)
    assert.Equal(t, "Hi Alice, greetings from Toronto!", msg)
}

func TestRenderEmptyFieldFallsBack(t *testing.T) {
    r := template.NewRegistry()
    r.Register("hello", "Hi {name}!")

    msg, err := r.Render("hello", &model.Contact{}, "")
    require.NoError(t, err)
    assert.Equal(t, "Hi <unknown>!", msg)
}

func TestRenderUnknownRef(t *testing.T) {
    r := template.NewRegistry()
    _, err := r.Render("missing", &model.Contact{}, "")

    var terr *appErrors.TemplateError
    require.ErrorAs(t, err, &terr)
    assert.Equal(t, "missing", terr.Ref)
}

func TestRenderUnresolvedPlaceholder(t *testing.T) {
    r := template.NewRegistry()
    r.Register("bad", "Hi {name}, your {favorite_color} listing awaits")

    _, err := r.Render("bad", &model.Contact{Name: "Bob"}, "")
    var terr *appErrors.TemplateError
    require.ErrorAs(t, err, &terr)
}

func TestRenderVariantOverridesBase(t *testing.T) {
    r := template.NewRegistry()
    r.Register("welcome", "base {name}")
    r.Register("welcome:modern_minimal", "minimal {name}")

    c := &model.Contact{Name: "Alice"}

    msg, err := r.Render("welcome", c, "modern_minimal")
    require.NoError(t, err)
    assert.Equal(t, "minimal Alice", msg)

    // Unregistered variants fall back to the base body.
    msg, err = r.Render("welcome", c, "classic_elegant")
    require.NoError(t, err)
    assert.Equal(t, "base Alice", msg)
}

func TestBuiltinTemplatesRender(t *testing.T) {
    r := template.Builtin()
    c := &model.Contact{Name: "Alice", Email: "a@example.com", Phone: "+15550100", Location: "Toronto"}

    for _, ref := range []string{"email_welcome_luxury", "whatsapp_portfolio", "sms_checkin", "email_referral"} {
        msg, err := r.Render(ref, c, "")
        require.NoError(t, err, ref)
        assert.NotContains(t, msg, "{")
    }
}

func TestBuiltinWelcomeVariantsOverrideBase(t *testing.T) {
    r := template.Builtin()
    c := &model.Contact{Name: "Alice", Location: "Toronto"}

    base, err := r.Render("email_welcome_luxury", c, "")
    require.NoError(t, err)

    seen := map[string]bool{base: true}
    for _, variant := range []string{"modern_minimal", "classic_elegant"} {
        msg, err := r.Render("email_welcome_luxury", c, variant)
        require.NoError(t, err, variant)
        assert.False(t, seen[msg], "variant %q rendered an already-seen body", variant)
        seen[msg] = true
    }
}
