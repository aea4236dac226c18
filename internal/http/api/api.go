package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/http/api/handlers"
	"github.com/proxydash/proxydash/internal/vendor"
)

// Deps carries the dependencies shared by the API handlers.
type Deps struct {
	DB        *gorm.DB        // Database handle.
	Vendors   *vendor.Manager // Vendor adapter registry.
	JWTSecret string          // HMAC signing secret.
	JWTExpiry time.Duration   // Token lifetime.
}

// Register mounts the dashboard API onto the gin engine.
func Register(engine *gin.Engine, deps Deps) {
	engine.Use(RequestLog(), CORS())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := handlers.NewAuthHandler(deps.DB, deps.JWTSecret, deps.JWTExpiry)
	vendorH := handlers.NewVendorHandler(deps.DB, deps.Vendors)
	customerH := handlers.NewCustomerHandler(deps.DB)
	rateH := handlers.NewCustomerRateHandler(deps.DB)
	billingH := handlers.NewBillingDetailHandler(deps.DB)
	invoiceH := handlers.NewInvoiceHandler(deps.DB)
	paymentH := handlers.NewCustomerPaymentHandler(deps.DB)
	serviceH := handlers.NewServiceHandler(deps.DB)
	bindingH := handlers.NewCustomerVendorServiceHandler(deps.DB)
	ticketH := handlers.NewSupportTicketHandler(deps.DB)
	usageH := handlers.NewUsageSnapshotHandler(deps.DB)

	root := engine.Group("/api")
	root.POST("/auth/login", authH.Login)

	authed := root.Group("")
	authed.Use(AuthRequired(deps.JWTSecret))
	{
		authed.GET("/auth/me", authH.Me)

		authed.GET("/vendors", vendorH.List)
		authed.GET("/vendors/:id", vendorH.Get)
		authed.GET("/vendors/:id/usage", vendorH.Usage)
		authed.GET("/vendors/:id/fetch", vendorH.Fetch)

		authed.GET("/services", serviceH.List)
		authed.GET("/usage", usageH.List)

		authed.GET("/billing-details", billingH.Get)
		authed.PUT("/billing-details", billingH.Upsert)
		authed.GET("/invoices", invoiceH.List)
		authed.GET("/invoices/:id", invoiceH.Get)
		authed.GET("/payments", paymentH.List)

		authed.GET("/tickets", ticketH.List)
		authed.POST("/tickets", ticketH.Create)
	}

	admin := authed.Group("")
	admin.Use(AdminRequired())
	{
		admin.POST("/vendors", vendorH.Create)
		admin.PUT("/vendors/:id", vendorH.Update)
		admin.DELETE("/vendors/:id", vendorH.Delete)

		admin.GET("/customers", customerH.List)
		admin.GET("/customers/:id", customerH.Get)
		admin.POST("/customers", customerH.Create)
		admin.PUT("/customers/:id", customerH.Update)
		admin.DELETE("/customers/:id", customerH.Delete)

		admin.GET("/rates", rateH.List)
		admin.POST("/rates", rateH.Create)
		admin.PUT("/rates/:id", rateH.Update)
		admin.DELETE("/rates/:id", rateH.Delete)

		admin.POST("/invoices", invoiceH.Create)
		admin.PUT("/invoices/:id", invoiceH.Update)
		admin.DELETE("/invoices/:id", invoiceH.Delete)

		admin.POST("/payments", paymentH.Create)
		admin.PUT("/payments/:id", paymentH.Update)
		admin.DELETE("/payments/:id", paymentH.Delete)

		admin.POST("/services", serviceH.Create)
		admin.PUT("/services/:id", serviceH.Update)
		admin.DELETE("/services/:id", serviceH.Delete)

		admin.GET("/bindings", bindingH.List)
		admin.POST("/bindings", bindingH.Create)
		admin.DELETE("/bindings/:id", bindingH.Delete)

		admin.PUT("/tickets/:id", ticketH.Update)
		admin.DELETE("/tickets/:id", ticketH.Delete)
	}
}
