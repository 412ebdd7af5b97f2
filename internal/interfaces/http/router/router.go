// Package router assembles the gin engine: middleware chain and versioned routes.
package router

import (
	_ "github.com/erp/settlement/docs"
	"github.com/erp/settlement/internal/infrastructure/auth"
	"github.com/erp/settlement/internal/infrastructure/logger"
	"github.com/erp/settlement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PublicPaths bypass authentication, tenant resolution, tracing and profiling.
// A trailing * matches every path under the prefix.
var PublicPaths = []string{"/health", "/health/ready", "/swagger/*"}

// EngineConfig configures the middleware chain
type EngineConfig struct {
	Logger              *zap.Logger
	Meter               metric.Meter // nil disables HTTP metrics
	ServiceName         string
	TracingEnabled      bool
	MaxBodySize         int64
	TokenValidator      *auth.TokenValidator // nil disables bearer authentication
	TenantHeaderEnabled bool
	TrustedProxies      []string
}

// NewEngine creates a gin engine with the full middleware chain installed.
// Order matters: request ids feed the logger, tenant resolution feeds span attributes and profiling labels.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
		SkipPaths:   PublicPaths,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meter))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.TokenValidator != nil {
		engine.Use(middleware.JWTAuth(middleware.JWTMiddlewareConfig{
			Validator: cfg.TokenValidator,
			SkipPaths: PublicPaths,
			Logger:    log,
		}))
	}
	engine.Use(middleware.Tenant(middleware.TenantConfig{
		HeaderEnabled: cfg.TenantHeaderEnabled,
		SkipPaths:     PublicPaths,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.Profiling(PublicPaths...))

	return engine, nil
}

// RegisterDocs serves the OpenAPI description and Swagger UI under /swagger
func RegisterDocs(engine *gin.Engine) {
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}
