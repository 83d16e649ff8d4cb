// cmd/server/main.go
package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/joho/godotenv"

    "github.com/designgaga/outreach-backend/internal/abtest"
    "github.com/designgaga/outreach-backend/internal/channel"
    "github.com/designgaga/outreach-backend/internal/config"
    "github.com/designgaga/outreach-backend/internal/controller"
    "github.com/designgaga/outreach-backend/internal/db"
    "github.com/designgaga/outreach-backend/internal/events"
    "github.com/designgaga/outreach-backend/internal/handler"
    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/repository"
    "github.com/designgaga/outreach-backend/internal/runner"
    "github.com/designgaga/outreach-backend/internal/scheduler"
    "github.com/designgaga/outreach-backend/internal/service"
    "github.com/designgaga/outreach-backend/internal/template"
)

func main() {
    // No .env file is fine in containers; OS env still applies.
    _ = godotenv.Load()

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        logging.Setup("info")
        logger := logging.Component("server")
        logger.Fatal().Err(err).Msg("failed to load config")
    }
    logging.Setup(cfg.LogLevel)
    logger := logging.Component("server")

    policies, err := cfg.TimingPolicies()
    if err != nil {
        logger.Fatal().Err(err).Msg("invalid timing configuration")
    }

    conn, err := db.Connect()
    if err != nil {
        logger.Fatal().Err(err).Msg("database unavailable")
    }
    defer conn.Close()

    contactRepo := &repository.ContactRepository{DB: conn}
    campaignRepo := &repository.CampaignRepository{DB: conn}
    runRepo := &repository.RunRepository{DB: conn}
    budgetRepo := &repository.BudgetRepository{DB: conn, Limits: cfg.DailyLimits()}
    assigner := abtest.NewAssigner(&repository.ABTestRepository{DB: conn})
    registry := template.Builtin()

    var publisher events.Publisher
    if url := os.Getenv("AMQP_URL"); url != "" {
        amqpPub, err := events.NewAMQPPublisher(url)
        if err != nil {
            logger.Fatal().Err(err).Msg("failed to connect to message broker")
        }
        publisher = amqpPub
    } else {
        logger.Warn().Msg("AMQP_URL not set, delivery events stay in memory")
        publisher = events.NewMemoryPublisher()
    }
    defer publisher.Close()

    var sender channel.Sender
    if os.Getenv("SENDER") == "log" {
        sender = channel.NewLogSender()
    } else {
        sender = channel.NewMockSender(0.9)
    }

    seqRunner := runner.New(
        campaignRepo, runRepo, contactRepo,
        budgetRepo, policies, assigner,
        registry, sender, publisher,
    )

    sched := scheduler.New(scheduler.Config{
        TickInterval:  cfg.Scheduler.TickInterval,
        EvalTimeout:   cfg.Scheduler.DispatchTimeout,
        MaxConcurrent: cfg.Scheduler.MaxConcurrent,
    }, runRepo, seqRunner)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if err := sched.Start(ctx); err != nil {
        logger.Fatal().Err(err).Msg("failed to start scheduler")
    }
    defer sched.Stop()

    campaignService := &service.CampaignService{
        CampaignRepo: campaignRepo,
        RunRepo:      runRepo,
        ContactRepo:  contactRepo,
        Budget:       budgetRepo,
        Assigner:     assigner,
        Templates:    registry,
        Policies:     policies,
    }

    campaignController := &controller.CampaignController{
        CampaignService: campaignService,
    }
    runHandler := &handler.RunHandler{
        Service:   campaignService,
        Scheduler: sched,
    }

    r := chi.NewRouter()
    r.Use(middleware.Recoverer)

    // Campaign routes
    r.Post("/campaigns", campaignController.CreateCampaign)
    r.Get("/campaigns", campaignController.ListCampaigns)
    r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
    r.Post("/campaigns/{id}/enroll", campaignController.Enroll)
    r.Get("/campaigns/{id}/runs", campaignController.ListRuns)
    r.Get("/campaigns/{id}/abtests/{stepRef}", campaignController.ABTestResults)

    // Run and channel routes
    r.Post("/runs/{id}/resume", runHandler.ResumeRunHandler)
    r.Post("/runs/{id}/cancel", runHandler.CancelRunHandler)
    r.Get("/runs/{id}/history", runHandler.RunHistoryHandler)
    r.Get("/channels/{channel}/stats", runHandler.ChannelStatsHandler)
    r.Post("/contacts/{id}/engagement", runHandler.EngagementHandler)
    r.Get("/scheduler/stats", runHandler.SchedulerStatsHandler)

    srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

    go func() {
        logger.Info().Str("port", cfg.Port).Msg("server running")
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logger.Fatal().Err(err).Msg("server failed")
        }
    }()

    <-ctx.Done()
    logger.Info().Msg("shutting down")

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        logger.Error().Err(err).Msg("forced shutdown")
    }
}
