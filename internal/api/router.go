package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/simnova/sharethrift/internal/api/handler"
	"github.com/simnova/sharethrift/internal/api/middleware"
	"github.com/simnova/sharethrift/internal/core/ports"
	"github.com/simnova/sharethrift/internal/infrastructure/http/handlers"
)

// Deps holds everything the router needs; cmd/server builds it.
type Deps struct {
	JWTSecret string
	Log       zerolog.Logger

	Passports     ports.PassportFactory
	Auth          ports.AuthService
	Listings      ports.ListingService
	Reservations  ports.ReservationService
	Conversations ports.ConversationService
	Users         ports.UserService
	Roles         ports.RoleService

	ReadinessChecks map[string]handlers.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("sharethrift"))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewReadinessHandler(d.ReadinessChecks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// Every /v1 request carries a passport; anonymous callers get the guest one.
	v1 := e.Group("/v1", middleware.Identity(d.JWTSecret), middleware.Passport(d.Passports, d.Log))
	member := middleware.RequirePrincipal()

	listings := handler.NewListingHandler(d.Listings)
	reservations := handler.NewReservationHandler(d.Reservations)
	v1.GET("/listings", listings.List)
	v1.GET("/listings/:id", listings.Get)
	v1.GET("/listings/:id/reservation-requests", reservations.ListForListing, member)
	v1.POST("/listings", listings.Create, member)
	v1.PATCH("/listings/:id", listings.Update, member)
	v1.POST("/listings/:id/publish", listings.Publish, member)
	v1.POST("/listings/:id/pause", listings.Pause, member)
	v1.POST("/listings/:id/cancel", listings.Cancel, member)
	v1.POST("/listings/:id/report", listings.Report, member)

	rr := v1.Group("/reservation-requests", member)
	rr.POST("", reservations.Request)
	rr.GET("/:id", reservations.Get)
	rr.POST("/:id/accept", reservations.Accept)
	rr.POST("/:id/reject", reservations.Reject)
	rr.POST("/:id/cancel", reservations.Cancel)
	rr.POST("/:id/request-close", reservations.RequestClose)
	rr.POST("/:id/close", reservations.Close)

	conversations := handler.NewConversationHandler(d.Conversations)
	conv := v1.Group("/conversations", member)
	conv.POST("", conversations.Start)
	conv.GET("/:id", conversations.Get)
	conv.PATCH("/:id", conversations.Reassign)
	conv.POST("/:id/activity", conversations.Touch)

	users := handler.NewUserHandler(d.Users, d.Roles)
	u := v1.Group("/users", member)
	u.GET("/me", users.Me)
	u.GET("/:id", users.Get)
	u.PATCH("/:id", users.UpdateProfile)
	u.POST("/:id/block", users.Block)
	u.POST("/:id/unblock", users.Unblock)
	u.PUT("/:id/role", users.AssignRole)

	roles := v1.Group("/roles", member)
	roles.POST("", users.CreateRole)
	roles.GET("/:id", users.GetRole)
	roles.PATCH("/:id", users.UpdateRole)

	return e
}
