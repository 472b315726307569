// Package router wires HTTP routes to handlers and declares the access
// policy of every protected group in one place.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/handler"
	"github.com/coursehub/coursehub/internal/middleware"
	"github.com/coursehub/coursehub/internal/model"
)

// RegisterRoutes registers routes that carry no dependencies. Currently it
// exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the credential and session login endpoints under
// /v1/auth. The rate limiter guards the whole group. OAuth routes are only
// registered when the provider is configured.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OAuthHandler, auth *middleware.Auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.GET("/verify-email", a.VerifyEmail)
	// Bridge: exchange a valid session cookie for a bearer token pair.
	g.POST("/session/token", a.SessionToken)
	// Logout needs an identity but no particular role or verification.
	g.POST("/logout", a.Logout, auth.Require(middleware.Policy{}))

	if o != nil {
		g.GET("/google/login", o.GoogleLogin)
		g.GET("/google/callback", o.GoogleCallback)
	}

	me := auth.Require(middleware.Policy{})
	e.GET("/v1/me", a.Me, me)
	e.PUT("/v1/me", a.UpdateMe, me)
	e.DELETE("/v1/me", a.DeactivateMe, me)
}

// RegisterCatalog registers the public catalog plus the instructor- and
// admin-gated course management routes.
func RegisterCatalog(e *echo.Echo, courses *handler.CourseHandler, categories *handler.CategoryHandler, auth *middleware.Auth, cache echo.MiddlewareFunc) {
	// Public, cached browse endpoints.
	e.GET("/v1/courses", courses.List, cache)
	e.GET("/v1/courses/:id", courses.Get, cache)
	e.GET("/v1/categories", categories.List, cache)

	teach := auth.Require(middleware.Policy{
		Roles:           []string{model.RoleInstructor, model.RoleAdmin},
		RequireVerified: true,
	})
	e.POST("/v1/courses", courses.Create, teach)
	e.PUT("/v1/courses/:id", courses.Update, teach)
	e.POST("/v1/courses/:id/publish", courses.Publish, teach)
	e.GET("/v1/instructor/courses", courses.InstructorCourses, teach)

	e.POST("/v1/categories", categories.Create,
		auth.Require(middleware.Policy{Roles: []string{model.RoleAdmin}}))

	// Free-course direct enrollment; any verified account.
	e.POST("/v1/courses/:id/enroll", courses.Enroll,
		auth.Require(middleware.Policy{RequireVerified: true}))
}

// RegisterEnrollments registers the student enrollment views.
func RegisterEnrollments(e *echo.Echo, enrollments *handler.EnrollmentHandler, auth *middleware.Auth) {
	authed := auth.Require(middleware.Policy{})
	e.GET("/v1/enrollments", enrollments.ListMine, authed)
	e.PUT("/v1/enrollments/:courseId/progress", enrollments.UpdateProgress, authed)
}

// RegisterPayments registers intent creation (verified accounts only) and
// the unauthenticated, signature-verified processor webhook.
func RegisterPayments(e *echo.Echo, payments *handler.PaymentHandler, auth *middleware.Auth) {
	e.POST("/v1/payments/create-intent", payments.CreateIntent,
		auth.Require(middleware.Policy{RequireVerified: true}))
	e.POST("/v1/payments/webhook", payments.HandleWebhook)
}
