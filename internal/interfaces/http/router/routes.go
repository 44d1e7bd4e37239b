package router

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/infrastructure/auth"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"github.com/heraerp/platform/internal/interfaces/http/handler"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config holds the middleware settings of the platform engine
type Config struct {
	ServiceName    string
	Tracing        bool
	Profiling      bool
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig

	JWT         *auth.JWTService
	Resolver    middleware.IdentityResolver
	RateLimiter middleware.RateLimiter
	Meter       *telemetry.MeterProvider
	Logger      *zap.Logger
}

// Handlers bundles the HTTP handlers mounted by New
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	Entity       *handler.EntityHandler
	DynamicData  *handler.DynamicDataHandler
	Relationship *handler.RelationshipHandler
	Transaction  *handler.TransactionHandler
}

// New builds the gin engine with the full middleware chain and every
// platform route.
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	if cfg.JWT == nil {
		return nil, errors.New("router: JWT service is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("router: identity resolver is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 10 << 20
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}

	// RequestID runs before the logger and span enricher, both read it
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.ServiceName, cfg.Tracing),
		middleware.SpanEnricher(),
		metrics,
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeRouteNotFound),
			dto.NewErrorResponse(dto.ErrCodeRouteNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.GET("/health", h.Health.Health)

	// the limiter keys on the token subject, so it follows JWT
	authn := []gin.HandlerFunc{middleware.JWTAuthMiddleware(cfg.JWT, log)}
	if cfg.RateLimiter != nil {
		authn = append(authn, middleware.RateLimit(cfg.RateLimiter, log))
	}

	health := NewDomainGroup("health", "").
		GET("/health", h.Health.Health)

	authRoutes := NewDomainGroup("auth", "/auth").Use(authn...).
		GET("/introspect", h.Auth.Introspect)

	service := NewDomainGroup("service", "").Use(authn...).
		Use(middleware.ServiceRoleOnly(), middleware.ServiceActor()).
		POST("/onboard", h.Auth.Onboard)
	service.Group("organizations", "/organizations").
		POST("", h.Organization.Create).
		GET("", h.Organization.List).
		GET("/:org_id", h.Organization.GetByID).
		PATCH("/:org_id/settings", h.Organization.UpdateSettings).
		POST("/:org_id/deactivate", h.Organization.Deactivate)

	scoped := NewDomainGroup("organization", "/orgs/:"+middleware.OrganizationParam).Use(authn...).
		Use(middleware.OrganizationScope(cfg.Resolver), middleware.Profiling(cfg.Profiling))
	scoped.Mount(
		entityRoutes(h),
		NewDomainGroup("dynamic-data", "/dynamic-data").
			POST("/delete", h.DynamicData.Delete).
			POST("/batch-delete", h.DynamicData.BatchDelete),
		NewDomainGroup("relationships", "/relationships").
			POST("", h.Relationship.Create).
			GET("", h.Relationship.List).
			GET("/:id", h.Relationship.GetByID).
			POST("/:id/deactivate", h.Relationship.Deactivate).
			DELETE("/:id", h.Relationship.Delete),
		NewDomainGroup("transactions", "/transactions").
			POST("", h.Transaction.Create).
			GET("", h.Transaction.List).
			POST("/crud", h.Transaction.Crud).
			GET("/:id", h.Transaction.GetByID).
			PATCH("/:id", h.Transaction.Update).
			POST("/:id/reverse", h.Transaction.Reverse),
	)

	NewRouter(engine, WithAPIVersion("v1")).
		Register(health, authRoutes, service, scoped).
		Setup()

	return engine, nil
}

func entityRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("entities", "/entities").
		POST("", h.Entity.Upsert).
		GET("", h.Entity.List).
		POST("/search", h.Entity.Search).
		GET("/:id", h.Entity.GetByID).
		DELETE("/:id", h.Entity.Delete).
		POST("/:id/archive", h.Entity.Archive).
		POST("/:id/recover", h.Entity.Recover).
		PUT("/:id/fields", h.DynamicData.SetFields).
		GET("/:id/fields", h.DynamicData.GetFields)
}
