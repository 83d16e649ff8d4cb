//cmd/seeder/main.go
//
// Applies the schema and loads demo data: a handful of staging leads plus
// the three stock campaign blueprints.
package main

import (
    "context"
    "os"

    "github.com/joho/godotenv"

    "github.com/designgaga/outreach-backend/internal/abtest"
    "github.com/designgaga/outreach-backend/internal/config"
    "github.com/designgaga/outreach-backend/internal/db"
    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/repository"
    "github.com/designgaga/outreach-backend/internal/service"
    "github.com/designgaga/outreach-backend/internal/template"
)

func main() {
    _ = godotenv.Load()
    logging.Setup("info")
    logger := logging.Component("seeder")

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        logger.Fatal().Err(err).Msg("failed to load config")
    }

    conn, err := db.Connect()
    if err != nil {
        logger.Fatal().Err(err).Msg("database unavailable")
    }
    defer conn.Close()

    schemaFile := os.Getenv("SCHEMA_FILE")
    if schemaFile == "" {
        schemaFile = "migrations/schema.sql"
    }
    schema, err := os.ReadFile(schemaFile)
    if err != nil {
        logger.Fatal().Err(err).Str("file", schemaFile).Msg("failed to read schema")
    }
    if _, err := conn.Exec(string(schema)); err != nil {
        logger.Fatal().Err(err).Msg("failed to apply schema")
    }
    logger.Info().Str("file", schemaFile).Msg("schema applied")

    ctx := context.Background()

    contactRepo := &repository.ContactRepository{DB: conn}
    campaignRepo := &repository.CampaignRepository{DB: conn}
    runRepo := &repository.RunRepository{DB: conn}

    svc := &service.CampaignService{
        CampaignRepo: campaignRepo,
        RunRepo:      runRepo,
        ContactRepo:  contactRepo,
        Budget:       &repository.BudgetRepository{DB: conn, Limits: cfg.DailyLimits()},
        Assigner:     abtest.NewAssigner(&repository.ABTestRepository{DB: conn}),
        Templates:    template.Builtin(),
    }

    if _, total, err := campaignRepo.ListCampaigns(ctx, 0, 1, ""); err != nil {
        logger.Fatal().Err(err).Msg("failed to inspect campaigns")
    } else if total > 0 {
        logger.Info().Int("existing", total).Msg("campaigns already present, skipping seed")
        return
    }

    contacts := []model.Contact{
        {Name: "Priya Sharma", Email: "priya@example.com", Phone: "+14165550101", Location: "Toronto", Score: 82},
        {Name: "Daniel Okafor", Email: "daniel@example.com", Phone: "+14165550102", Location: "Mississauga", Score: 55},
        {Name: "Mei Lin", Email: "mei@example.com", Phone: "+14165550103", Location: "Vancouver", Score: 30},
        {Name: "Sofia Rossi", Email: "sofia@example.com", Phone: "+14165550104", Location: "Oakville", Score: 91},
    }
    for i := range contacts {
        if err := contactRepo.Create(ctx, &contacts[i]); err != nil {
            logger.Fatal().Err(err).Str("name", contacts[i].Name).Msg("failed to create contact")
        }
    }
    logger.Info().Int("contacts", len(contacts)).Msg("contacts seeded")

    blueprints := []service.CreateCampaignInput{
        {
            Name:     "luxury welcome",
            Priority: "high",
            Steps: []service.StepInput{
                {TemplateRef: "email_welcome_luxury", Channel: "email",
                    ABTest: &service.ABTestInput{
                        Variants:      []string{"modern_minimal", "classic_elegant"},
                        SuccessMetric: "response_rate",
                    },
                    NextSteps: []string{"whatsapp_portfolio"}},
                {TemplateRef: "whatsapp_portfolio", Channel: "whatsapp", DelayHours: 48},
            },
        },
        {
            Name:     "portfolio showcase",
            Priority: "normal",
            Steps: []service.StepInput{
                {TemplateRef: "email_portfolio", Channel: "email",
                    Conditions: map[string]any{"score_min": 50},
                    NextSteps:  []string{"whatsapp_feedback", "sms_checkin"}},
                {TemplateRef: "whatsapp_feedback", Channel: "whatsapp", DelayHours: 24,
                    Conditions: map[string]any{"opened_previous": true}},
                {TemplateRef: "sms_checkin", Channel: "sms", DelayHours: 72,
                    Conditions: map[string]any{"no_response": true}},
            },
        },
        {
            Name:     "referral request",
            Priority: "normal",
            Steps: []service.StepInput{
                {TemplateRef: "email_referral", Channel: "email",
                    Conditions: map[string]any{"score_min": 75},
                    NextSteps:  []string{"sms_referral_thanks"}},
                {TemplateRef: "sms_referral_thanks", Channel: "sms", DelayHours: 96,
                    Conditions: map[string]any{"opened_previous": true}},
            },
        },
    }

    for _, blueprint := range blueprints {
        def, _, err := svc.CreateCampaign(ctx, blueprint)
        if err != nil {
            logger.Fatal().Err(err).Str("campaign", blueprint.Name).Msg("failed to create campaign")
        }
        logger.Info().Int("id", def.Campaign.ID).Str("campaign", def.Name).Msg("campaign seeded")
    }

    logger.Info().Msg("database seeding completed")
}
