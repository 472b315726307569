package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/database"
	"github.com/coursehub/coursehub/internal/handler"
	"github.com/coursehub/coursehub/internal/middleware"
	"github.com/coursehub/coursehub/internal/payment"
	"github.com/coursehub/coursehub/internal/repository"
	"github.com/coursehub/coursehub/internal/router"
	"github.com/coursehub/coursehub/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	courses := repository.NewCourseRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	payments := repository.NewPaymentRepo(db)

	sessions := session.NewStore(cfg.SessionSecret, cfg.SessionMaxAge)
	auth := &middleware.Auth{
		AccessSecret: cfg.AccessSecret,
		Sessions:     sessions,
		Users:        users,
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: cache and rate limiting disabled")
	}
	cache := middleware.NewCatalogCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewRateLimit(config.LoadRateLimitConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, sessions)
	var oauthH *handler.OAuthHandler
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" && cfg.GoogleRedirectURL != "" {
		google := session.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		oauthH = handler.NewOAuthHandler(cfg, users, sessions, google)
	} else {
		log.Println("google oauth not configured: session login routes disabled")
	}
	courseH := handler.NewCourseHandler(courses, categories, enrollments)
	categoryH := handler.NewCategoryHandler(categories)
	enrollmentH := handler.NewEnrollmentHandler(enrollments)
	paymentH := handler.NewPaymentHandler(courses, enrollments, payments,
		payment.NewStripeClient(cfg.StripeSecretKey),
		payment.StripeWebhook{Secret: cfg.StripeWebhookSecret})

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, oauthH, auth, limiter)
	router.RegisterCatalog(e, courseH, categoryH, auth, cache)
	router.RegisterEnrollments(e, enrollmentH, auth)
	router.RegisterPayments(e, paymentH, auth)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
