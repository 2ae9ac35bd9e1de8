package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamacare/triagedesk/internal/decision/aggregator"
	"github.com/mamacare/triagedesk/internal/decision/handover"
	"github.com/mamacare/triagedesk/internal/decision/medengine"
	"github.com/mamacare/triagedesk/internal/decision/mlmodel"
	"github.com/mamacare/triagedesk/internal/events/casebus"
	"github.com/mamacare/triagedesk/internal/infra/database"
	dbrepository "github.com/mamacare/triagedesk/internal/infra/database/repository"
	"github.com/mamacare/triagedesk/internal/infra/firebase"
	httpserver "github.com/mamacare/triagedesk/internal/infra/http"
	"github.com/mamacare/triagedesk/internal/port/handler"
	"github.com/mamacare/triagedesk/internal/port/middleware"
	"github.com/mamacare/triagedesk/internal/store/casestore"
	"github.com/mamacare/triagedesk/internal/store/escalation"
	"github.com/mamacare/triagedesk/pkg/config"
	"github.com/mamacare/triagedesk/pkg/logger"
	"github.com/mamacare/triagedesk/pkg/metrics"
	"github.com/mamacare/triagedesk/pkg/validator"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewLogger(logger.Config{LogLevel: "info", Pretty: false, WithTime: true})

	cfg, err := config.LoadConfig("triagedesk", "./configs", "../configs", ".")
	if err != nil {
		log.Fatal("failed to load configuration", err)
	}

	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}

	pool, err := pgxpool.New(ctx, database.BuildConnectionString(dbConfig))
	if err != nil {
		log.Fatal("failed to connect to database", err)
	}
	defer pool.Close()

	migrationManager := database.NewMigrationManager(pool, log)
	migrationManager.AddMigration(1, "Initial schema", database.CreateInitialMigration().SQL)
	if err := migrationManager.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", err)
	}

	tx := database.NewTxManager(pool, log)
	caseRepo := dbrepository.NewCaseRepository(tx)
	assessmentRepo := dbrepository.NewAssessmentRepository(tx)
	adviceRepo := dbrepository.NewAdviceRepository(tx)
	tokenRepo := dbrepository.NewEscalationTokenRepository(tx)
	auditRepo := dbrepository.NewAuditRepository(tx)

	cases := casestore.New(tx, caseRepo, assessmentRepo, adviceRepo, tokenRepo, auditRepo, log)
	tokens := escalation.New(tokenRepo)

	firebaseAuth := firebase.New(firebase.Config{
		CredentialsFile: cfg.Firebase.CredentialsFile,
		ProjectID:       cfg.Firebase.ProjectID,
	}, log)
	if err := firebaseAuth.Initialize(ctx); err != nil {
		log.Error("failed to initialize firebase auth, phw routes will reject every request", err)
	}

	model := mlmodel.NewModel(cfg.Decision.ModelArtifactPath, log)
	medEngine := medengine.NewEngine()
	agg := aggregator.New(model, medEngine, log)

	handoverGen := handover.New(nil, log)

	bus := casebus.New()
	validate := validator.New()

	analyzeHandler := handler.NewAnalyzeHandler(validate, cases, agg, bus, log)
	escalateHandler := handler.NewEscalateHandler(validate, cases, assessmentRepo, tokens, handoverGen, bus, cfg.Specialist.PortalBaseURL, log)
	specialistHandler := handler.NewSpecialistHandler(validate, cases, assessmentRepo, handoverGen, bus, log)
	caseHandler := handler.NewCaseHandler(caseRepo, assessmentRepo, adviceRepo, log)
	wsHandler := handler.NewWSHandler(bus, firebaseAuth, tokens, log)

	phwAuth := middleware.NewAuthMiddleware(firebaseAuth, log)
	specialistAuth := middleware.NewSpecialistAuthMiddleware(tokens, log)

	metricsClient := metrics.NewNoopClient()
	if cfg.Metrics.Enabled {
		metricsClient = metrics.NewPrometheusClient()
	}

	router := httpserver.NewRouter(
		analyzeHandler, escalateHandler, specialistHandler, caseHandler, wsHandler,
		phwAuth, specialistAuth, log, metricsClient,
	)

	serverConfig := httpserver.Config{
		Address:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
	server := httpserver.NewServer(serverConfig, router.Setup(), log)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		sig := <-stop

		log.Info("shutting down", logger.Field{Key: "signal", Value: sig.String()})

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, serverConfig.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			log.Error("server shutdown error", err)
		}
		cancel()
	}()

	log.Info("starting triage decision service", logger.Field{Key: "address", Value: serverConfig.Address})
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", err)
	}
}
