package handlers

import (
	"net/http"
	"os"

	"github.com/Viduth04/imax-backend/internal/appointments"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/cart"
	"github.com/Viduth04/imax-backend/internal/config"
	"github.com/Viduth04/imax-backend/internal/orders"
	"github.com/Viduth04/imax-backend/internal/payments"
	"github.com/Viduth04/imax-backend/internal/products"
	"github.com/Viduth04/imax-backend/internal/stores/kafka"
	"github.com/Viduth04/imax-backend/internal/stores/redis"
	"github.com/Viduth04/imax-backend/internal/users"
	"github.com/Viduth04/imax-backend/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	cfg          config.Config
	validate     *validator.Validate
	users        *users.Conf
	products     *products.Conf
	cart         *cart.Conf
	orders       *orders.Service
	payments     *payments.Service
	appointments *appointments.Service
	authKeys     *auth.Keys
	k            *kafka.Conf
	rdb          *redis.Conf
}

func NewHandler(cfg config.Config, u *users.Conf, p *products.Conf, ct *cart.Conf,
	o *orders.Service, pay *payments.Service, ap *appointments.Service,
	authKeys *auth.Keys, k *kafka.Conf, rdb *redis.Conf) *Handler {
	return &Handler{
		cfg:          cfg,
		validate:     validator.New(),
		users:        u,
		products:     p,
		cart:         ct,
		orders:       o,
		payments:     pay,
		appointments: ap,
		authKeys:     authKeys,
		k:            k,
		rdb:          rdb,
	}
}

// API builds the router. Route groups follow the resource layout of the
// storefront: auth, catalog, cart, orders, payments, appointments and the
// technician directory.
func API(cfg config.Config, mid *middleware.Mid, h *Handler) *gin.Engine {
	r := gin.New()
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	v1 := r.Group(cfg.EndpointPrefix)
	v1.Use(middleware.Logger(), gin.Recovery())

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "service": cfg.ServiceName})
	})

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", mid.Authentication(), h.Me)
	}

	prods := v1.Group("/products")
	{
		prods.GET("", h.ListProducts)
		prods.GET("/:id", h.GetProduct)
		prods.POST("", mid.Authentication(), mid.Authorize(h.CreateProduct, auth.RoleAdmin))
		prods.PUT("/:id", mid.Authentication(), mid.Authorize(h.UpdateProduct, auth.RoleAdmin))
		prods.DELETE("/:id", mid.Authentication(), mid.Authorize(h.DeleteProduct, auth.RoleAdmin))
	}

	cartGroup := v1.Group("/cart", mid.Authentication())
	{
		cartGroup.GET("", h.GetCart)
		cartGroup.POST("", h.AddCartItem)
		cartGroup.PUT("/:productId", h.UpdateCartItem)
		cartGroup.DELETE("/:productId", h.RemoveCartItem)
		cartGroup.DELETE("", h.ClearCart)
	}

	ordersGroup := v1.Group("/orders", mid.Authentication())
	{
		ordersGroup.POST("", h.CreateOrder)
		ordersGroup.GET("/my-orders", h.MyOrders)
		ordersGroup.GET("/stats", mid.Authorize(h.OrderStats, auth.RoleAdmin))
		ordersGroup.GET("", mid.Authorize(h.ListOrders, auth.RoleAdmin))
		ordersGroup.GET("/:id", h.GetOrder)
		ordersGroup.PUT("/:id/address", h.UpdateOrderAddress)
		ordersGroup.PUT("/:id/cancel", h.CancelOrder)
		ordersGroup.PUT("/:id/status", mid.Authorize(h.UpdateOrderStatus, auth.RoleAdmin))
		ordersGroup.DELETE("/:id", mid.Authorize(h.DeleteOrder, auth.RoleAdmin))
	}

	payGroup := v1.Group("/payments")
	{
		payGroup.POST("/create-intent", mid.Authentication(), h.CreatePaymentIntent)
		payGroup.POST("/confirm", mid.Authentication(), h.ConfirmPayment)
		// Stripe calls this; auth is the webhook signature, not a session.
		payGroup.POST("/webhook", h.PaymentWebhook)
	}

	apts := v1.Group("/appointments", mid.Authentication())
	{
		apts.POST("", h.BookAppointment)
		apts.GET("/my-appointments", h.MyAppointments)
		apts.GET("/available-slots", h.AvailableSlots)
		apts.GET("/assigned", mid.Authorize(h.AssignedAppointments, auth.RoleTechnician))
		apts.GET("/stats", mid.Authorize(h.AppointmentStats, auth.RoleAdmin))
		apts.GET("", mid.Authorize(h.ListAppointments, auth.RoleAdmin))
		apts.GET("/:id", h.GetAppointment)
		apts.PUT("/:id", h.RescheduleAppointment)
		apts.PUT("/:id/cancel", h.CancelAppointment)
		apts.PUT("/:id/assign", mid.Authorize(h.AssignTechnician, auth.RoleAdmin))
		apts.PUT("/:id/status", h.UpdateAppointmentStatus)
	}

	techs := v1.Group("/technicians", mid.Authentication())
	{
		techs.GET("", mid.Authorize(h.ListTechnicians, auth.RoleAdmin))
		techs.POST("", mid.Authorize(h.CreateTechnician, auth.RoleAdmin))
		techs.GET("/:id", mid.Authorize(h.GetTechnician, auth.RoleAdmin))
		techs.PUT("/:id/status", mid.Authorize(h.UpdateTechnicianStatus, auth.RoleAdmin))
	}

	return r
}
