package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mariyask04/Clinic-Management/internal/config"
	"github.com/mariyask04/Clinic-Management/internal/domain/billing"
	"github.com/mariyask04/Clinic-Management/internal/domain/history"
	"github.com/mariyask04/Clinic-Management/internal/domain/prescription"
	"github.com/mariyask04/Clinic-Management/internal/domain/sequence"
	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
	"github.com/mariyask04/Clinic-Management/internal/platform/auth"
	"github.com/mariyask04/Clinic-Management/internal/platform/db"
	"github.com/mariyask04/Clinic-Management/internal/platform/middleware"
	"github.com/mariyask04/Clinic-Management/internal/platform/telemetry"
)

const version = "0.1.0"

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clinic-server").Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// services is the wired domain layer.
type services struct {
	sequences     *sequence.Allocator
	visits        *visit.Service
	prescriptions *prescription.Service
	bills         *billing.Service
	history       *history.Service
}

func newServices(cfg *config.Config, st *stores, logger zerolog.Logger) (*services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	matrix, err := visit.LoadRoleMatrix(cfg.RolePolicyFile)
	if err != nil {
		return nil, err
	}

	seq := sequence.NewAllocator(st.sequences)
	seq.SetBaseline(cfg.TokenBaseline)
	seq.SetLogger(logger.With().Str("component", "sequence").Logger())

	visits := visit.NewService(st.visits, st.patients, seq)
	visits.SetPolicy(matrix)
	visits.SetCounter(cfg.TokenCounter)
	visits.SetTokenPrefix(cfg.TokenPrefix)
	visits.SetLocation(loc)
	visits.SetLogger(logger.With().Str("component", "visit").Logger())

	rx := prescription.NewService(st.prescriptions, visits, visits)
	rx.SetTransactor(st.tx)
	rx.SetLogger(logger.With().Str("component", "prescription").Logger())

	bills := billing.NewService(st.bills, visits)
	bills.SetLogger(logger.With().Str("component", "billing").Logger())

	return &services{
		sequences:     seq,
		visits:        visits,
		prescriptions: rx,
		bills:         bills,
		history:       history.NewService(visits, st.patients, rx, bills),
	}, nil
}

// newServer builds the HTTP server over already-opened stores.
func newServer(cfg *config.Config, st *stores, logger zerolog.Logger) (*echo.Echo, error) {
	svc, err := newServices(cfg, st, logger)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, auth.DevRoleHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(telemetry.TracingMiddleware(nil))

	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.JWTSecret),
		Skipper:    auth.AuthSkipper,
	}
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(st.probe))

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	visit.NewHandler(svc.visits).RegisterRoutes(api)
	prescription.NewHandler(svc.prescriptions).RegisterRoutes(api)
	billing.NewHandler(svc.bills).RegisterRoutes(api)
	history.NewHandler(svc.history).RegisterRoutes(api)

	return e, nil
}

func peekSequence(ctx context.Context, cfg *config.Config, st *stores, name string) (int64, error) {
	seq := sequence.NewAllocator(st.sequences)
	seq.SetBaseline(cfg.TokenBaseline)
	if name == "" {
		name = cfg.TokenCounter
	}
	return seq.Peek(ctx, name)
}
