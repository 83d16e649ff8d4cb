package model_test

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
)

func twoStepCampaign() (model.Campaign, []model.Step) {
    c := model.Campaign{Name: "luxury_welcome", Priority: model.PriorityHigh}
    steps := []model.Step{
        {
            TemplateRef: "email_welcome_luxury",
            Channel:     model.ChannelEmail,
            Conditions:  []model.Condition{{Kind: model.CondScoreMin, Value: 70}},
            NextRefs:    []string{"whatsapp_portfolio"},
        },
        {
            TemplateRef: "whatsapp_portfolio",
            Channel:     model.ChannelWhatsApp,
            DelayHours:  48,
        },
    }
    return c, steps
}

func TestNewDefinitionResolvesEdges(t *testing.T) {
    c, steps := twoStepCampaign()
    def, err := model.NewDefinition(c, steps)
    require.NoError(t, err)

    assert.Equal(t, 0, def.StepByRef("email_welcome_luxury"))
    assert.Equal(t, 1, def.StepByRef("whatsapp_portfolio"))
    assert.Equal(t, -1, def.StepByRef("missing"))
    assert.Equal(t, []int{1}, def.Successors(0))
    assert.Empty(t, def.Successors(1))
}

func TestNewDefinitionRejectsBadShapes(t *testing.T) {
    tests := []struct {
        name   string
        mutate func(*model.Campaign, []model.Step) []model.Step
    }{
        {"missing name", func(c *model.Campaign, s []model.Step) []model.Step {
            c.Name = ""
            return s
        }},
        {"no steps", func(c *model.Campaign, s []model.Step) []model.Step {
            return nil
        }},
        {"duplicate template_ref", func(c *model.Campaign, s []model.Step) []model.Step {
            s[1].TemplateRef = s[0].TemplateRef
            s[0].NextRefs = nil
            return s
        }},
        {"unknown channel", func(c *model.Campaign, s []model.Step) []model.Step {
            s[0].Channel = "carrier_pigeon"
            return s
        }},
        {"negative delay", func(c *model.Campaign, s []model.Step) []model.Step {
            s[1].DelayHours = -1
            return s
        }},
        {"dangling next step", func(c *model.Campaign, s []model.Step) []model.Step {
            s[0].NextRefs = []string{"nope"}
            return s
        }},
        {"backward edge", func(c *model.Campaign, s []model.Step) []model.Step {
            s[1].NextRefs = []string{"email_welcome_luxury"}
            return s
        }},
        {"self edge", func(c *model.Campaign, s []model.Step) []model.Step {
            s[0].NextRefs = []string{"email_welcome_luxury"}
            return s
        }},
        {"single-variant ab test", func(c *model.Campaign, s []model.Step) []model.Step {
            s[0].ABTest = &model.ABTest{Variants: []string{"only"}}
            return s
        }},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            c, steps := twoStepCampaign()
            steps = tt.mutate(&c, steps)
            _, err := model.NewDefinition(c, steps)
            require.Error(t, err)
            var verr *appErrors.ValidationError
            assert.ErrorAs(t, err, &verr)
        })
    }
}

func TestRunStatusTerminal(t *testing.T) {
    assert.True(t, model.RunCompleted.Terminal())
    assert.True(t, model.RunFailed.Terminal())
    assert.False(t, model.RunActive.Terminal())
    assert.False(t, model.RunPaused.Terminal())
}
