// cmd/worker/main.go
//
// Headless evaluation loop: the same scheduler the server embeds, without
// the HTTP surface. Run this when dispatch should be isolated from API
// traffic; only one of server/worker should own the loop per deployment.
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"

    "github.com/designgaga/outreach-backend/internal/abtest"
    "github.com/designgaga/outreach-backend/internal/channel"
    "github.com/designgaga/outreach-backend/internal/config"
    "github.com/designgaga/outreach-backend/internal/db"
    "github.com/designgaga/outreach-backend/internal/events"
    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/repository"
    "github.com/designgaga/outreach-backend/internal/runner"
    "github.com/designgaga/outreach-backend/internal/scheduler"
    "github.com/designgaga/outreach-backend/internal/template"
)

func main() {
    _ = godotenv.Load()

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        logging.Setup("info")
        logger := logging.Component("worker")
        logger.Fatal().Err(err).Msg("failed to load config")
    }
    logging.Setup(cfg.LogLevel)
    logger := logging.Component("worker")

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
        template.Builtin(), sender, publisher,
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

    logger.Info().Msg("worker running, evaluating campaign runs")
    <-ctx.Done()

    if err := sched.Stop(); err != nil {
        logger.Error().Err(err).Msg("scheduler stop failed")
    }
}
