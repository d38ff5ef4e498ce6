// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/problemhub/problemhub/internal/handler"
	"github.com/problemhub/problemhub/internal/middleware"
	"github.com/problemhub/problemhub/internal/utils"
)

// RegisterRoutes registers routes that need no authentication or rate
// limiting. Currently only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts the credential endpoints under /api/auth behind the
// rate limiter. None of them require an existing session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/api/auth", rateLimit)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/send-otp", a.SendOTP)
	g.POST("/verify-otp", a.VerifyOTP)
}

// RegisterProfile mounts the profile endpoints under /api/profile. Every
// route is gated by bearer-token verification; the handler reads the user ID
// the middleware bound from the token claim. The upload directory is served
// statically for profile photos.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, tokens *utils.TokenManager) {
	g := e.Group("/api/profile")
	g.Use(middleware.JWTAuth(tokens))
	g.GET("/me", p.Me)
	g.POST("/update", p.Update)

	e.Static("/uploads", p.UploadDir)
}

// RegisterProblems mounts the public problem board under /api/problems.
func RegisterProblems(e *echo.Echo, p *handler.ProblemHandler) {
	g := e.Group("/api/problems")
	g.GET("", p.List)
	g.POST("", p.Create)
	g.POST("/:id/reaction", p.React)
	g.POST("/:id/comment", p.Comment)
	g.POST("/:id/answer", p.Answer)
	g.PATCH("/:id/difficulty", p.SetDifficulty)
	g.DELETE("/:problemId/comment/:commentId", p.DeleteComment)
	g.DELETE("/:problemId/answer/:answerId", p.DeleteAnswer)
}
