package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/clinicore/patient-registry/internal/config"
	healthHandler "github.com/clinicore/patient-registry/internal/handler/health"
	patientHandler "github.com/clinicore/patient-registry/internal/handler/patient"
	"github.com/clinicore/patient-registry/internal/middleware"
	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/internal/repository/postgres"
	redisrepo "github.com/clinicore/patient-registry/internal/repository/redis"
	"github.com/clinicore/patient-registry/internal/router"
	auditService "github.com/clinicore/patient-registry/internal/service/audit"
	"github.com/clinicore/patient-registry/internal/service/clinician"
	medicalService "github.com/clinicore/patient-registry/internal/service/medical"
	patientService "github.com/clinicore/patient-registry/internal/service/patient"
	"github.com/clinicore/patient-registry/internal/service/patientid"
	"github.com/clinicore/patient-registry/pkg/auth"
	"github.com/clinicore/patient-registry/pkg/logger"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Logging)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("registry")

	// Repositories
	patientRepo := postgres.NewPatientRepository(db, m)
	recordRepo := postgres.NewMedicalRecordRepository(db, m)
	auditRepo := postgres.NewAuditRepository(db, m)
	clinicianRepo := postgres.NewClinicianRepository(db, m)
	appointmentRepo := postgres.NewAppointmentRepository(db, m)

	sequenceRepo, err := newSequenceRepository(cfg, db, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sequence backend")
	}

	// Services
	allocator := patientid.NewAllocator(sequenceRepo, m)
	auditor := auditService.NewService(auditRepo, m)
	directory := clinician.NewDirectory(clinicianRepo)
	patientSvc := patientService.NewService(patientRepo, appointmentRepo, directory, allocator, auditor)
	medicalSvc := medicalService.NewService(recordRepo, patientRepo, directory, auditor)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := model.RegisterValidations(v); err != nil {
			log.Fatal().Err(err).Msg("failed to register validations")
		}
	}

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTValidator(cfg.JWT.Secret))
	patientH := patientHandler.NewHandler(patientSvc, medicalSvc, authMiddleware)
	healthH := healthHandler.NewHandler(db)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	r := router.NewRouter(patientH, healthH, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig,
		TimeoutConfig:    middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	l := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Console,
	})
	log.Logger = l.Zerolog()
}

func newSequenceRepository(cfg *config.Config, db *sqlx.DB, m *metrics.Metrics) (repository.SequenceRepository, error) {
	switch cfg.Sequence.Backend {
	case config.SequenceBackendRedis:
		return redisrepo.NewSequenceRepository(cfg.Redis.URL)
	default:
		return postgres.NewSequenceRepository(db, m), nil
	}
}
