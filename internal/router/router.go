package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoiceledger/internal/handler"
	"invoiceledger/internal/metrics"
	"invoiceledger/internal/middleware"
	"invoiceledger/internal/service"
)

// Options controls optional router behaviour.
type Options struct {
	// AuthService guards /api/v1 when non-nil.
	AuthService    service.AuthService
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	opts Options,
	authH *handler.AuthHandler,
	projectH *handler.ProjectHandler,
	invoiceH *handler.InvoiceHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Metrics))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	protected := v1.Group("")
	if opts.AuthService != nil {
		v1.POST("/auth/login", authH.Login)
		protected.Use(middleware.AuthMiddleware(opts.AuthService))
	}

	projects := protected.Group("/projects")
	projects.GET("", projectH.List)
	projects.POST("", projectH.Create)
	projects.GET("/:id", projectH.Get)
	projects.PUT("/:id", projectH.Update)
	projects.DELETE("/:id", projectH.Delete)
	projects.POST("/:id/apply-pdf", invoiceH.ApplyPDF)
	projects.GET("/:id/invoices", projectH.ListInvoices)
	projects.GET("/:id/export", projectH.Export)

	protected.POST("/process-invoices", invoiceH.ProcessInvoices)

	return r
}
