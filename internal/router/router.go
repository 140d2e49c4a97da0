package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // stock middleware: recover, CORS, secure headers, body limit
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/complaint-tracker/internal/config"
	"github.com/iliyamo/complaint-tracker/internal/handler"
	"github.com/iliyamo/complaint-tracker/internal/middleware"
	"github.com/iliyamo/complaint-tracker/internal/model"
	"github.com/iliyamo/complaint-tracker/internal/utils"
)

// Deps is everything the routes need.  Redis may be nil, in which case the
// auth endpoints are not rate limited.
type Deps struct {
	Log         *zap.Logger
	Tokens      *utils.TokenManager
	Auth        *handler.AuthHandler
	Complaints  *handler.ComplaintHandler
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	CORSOrigins []string
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	// Order matters: recover wraps everything, the logger sees the final status.
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:         "0",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'none'",
		ReferrerPolicy:        "no-referrer",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterComplaints(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers /register and /login behind the Redis token bucket,
// and /me behind JWTAuth.
func RegisterAuth(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	e.POST("/register", d.Auth.Register, limit)
	e.POST("/login", d.Auth.Login, limit)

	e.GET("/me", d.Auth.Me, middleware.JWTAuth(d.Tokens))
}

// RegisterComplaints registers the complaint endpoints.  Every route needs a
// valid token; listing everything and changing status need the admin role.
func RegisterComplaints(e *echo.Echo, d Deps) {
	g := e.Group("/complaints", middleware.JWTAuth(d.Tokens))
	admin := middleware.RequireRole(model.RoleAdmin)

	g.POST("", d.Complaints.Create)
	g.GET("/my", d.Complaints.ListMine)
	g.GET("", d.Complaints.ListAll, admin)
	g.PATCH("/:id/status", d.Complaints.UpdateStatus, admin)
}
