package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/customize"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	carts     *service.CartRegistry
	catalog   *service.Catalog
	customize *service.CustomizeService
	checkout  *service.CheckoutService
	store     *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartRegistry,
	catalog *service.Catalog,
	customizeService *service.CustomizeService,
	checkoutService *service.CheckoutService,
	st *store.Store,
) *Handler {
	return &Handler{
		carts:     carts,
		catalog:   catalog,
		customize: customizeService,
		checkout:  checkoutService,
		store:     st,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products/:id", h.getProduct)

		v1.POST("/carts", h.createCart)
		v1.GET("/carts/:id", h.getCart)
		v1.POST("/carts/:id/items", h.addCartItem)
		v1.PATCH("/carts/:id/items/:lineId", h.adjustCartItem)
		v1.DELETE("/carts/:id/items/:lineId", h.removeCartItem)

		v1.POST("/customizations", h.startCustomization)
		v1.POST("/customizations/:id/toggle", h.toggleAddon)
		v1.PUT("/customizations/:id", h.updateCustomization)
		v1.POST("/customizations/:id/confirm", h.confirmCustomization)
		v1.DELETE("/customizations/:id", h.discardCustomization)

		v1.POST("/checkout", h.openCheckout)
		v1.GET("/checkout/:id", h.getCheckout)
		v1.POST("/checkout/:id/identify", h.identify)
		v1.POST("/checkout/:id/authenticate", h.authenticate)
		v1.POST("/checkout/:id/register", h.register)
		v1.POST("/checkout/:id/fulfillment", h.chooseFulfillment)
		v1.POST("/checkout/:id/address", h.submitAddress)
		v1.POST("/checkout/:id/address/select", h.selectAddress)
		v1.POST("/checkout/:id/pickup/confirm", h.confirmPickup)
		v1.POST("/checkout/:id/payment", h.submitPayment)
		v1.POST("/checkout/:id/back", h.goBack)
		v1.DELETE("/checkout/:id", h.cancelCheckout)

		v1.GET("/orders/:id", h.getOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
		return
	}

	groups, err := h.catalog.GetAddonGroups(c.Request.Context(), product.AddonGroupIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load addon groups", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product, "addon_groups": groups})
}

func (h *Handler) createCart(c *gin.Context) {
	crt := h.carts.Create()
	c.JSON(http.StatusCreated, cartView(crt))
}

func (h *Handler) getCart(c *gin.Context) {
	crt, err := h.carts.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}
	c.JSON(http.StatusOK, cartView(crt))
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	crt, err := h.carts.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
		return
	}

	item, err := crt.AddProduct(*product, req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item, "cart": cartView(crt)})
}

type adjustCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) adjustCartItem(c *gin.Context) {
	crt, err := h.carts.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	var req adjustCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := crt.AdjustQuantity(c.Param("lineId"), req.Quantity); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cartView(crt))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	crt, err := h.carts.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	if !crt.Remove(c.Param("lineId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Line item not found"})
		return
	}

	c.JSON(http.StatusOK, cartView(crt))
}

type startCustomizationRequest struct {
	CartID    string `json:"cart_id" binding:"required"`
	ProductID int64  `json:"product_id" binding:"required"`
}

func (h *Handler) startCustomization(c *gin.Context) {
	var req startCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.customize.Start(c.Request.Context(), req.CartID, req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resolve product", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, session)
}

type toggleAddonRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	ItemID  int64 `json:"item_id" binding:"required"`
}

func (h *Handler) toggleAddon(c *gin.Context) {
	var req toggleAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.customize.Toggle(c.Param("id"), req.GroupID, req.ItemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customization session not found"})
		return
	}

	c.JSON(http.StatusOK, session)
}

type updateCustomizationRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

func (h *Handler) updateCustomization(c *gin.Context) {
	var req updateCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.customize.Update(c.Param("id"), req.Quantity, req.Note)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customization session not found"})
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) confirmCustomization(c *gin.Context) {
	item, err := h.customize.Confirm(c.Param("id"))
	if err != nil {
		var groupErr *customize.GroupError
		if errors.As(err, &groupErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    groupErr.Error(),
				"group_id": groupErr.GroupID,
				"kind":     groupErr.Kind,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) discardCustomization(c *gin.Context) {
	h.customize.Discard(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type openCheckoutRequest struct {
	BusinessID int64  `json:"business_id" binding:"required"`
	CartID     string `json:"cart_id" binding:"required"`
	UserID     int64  `json:"user_id"`
}

func (h *Handler) openCheckout(c *gin.Context) {
	var req openCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.checkout.Open(c.Request.Context(), req.BusinessID, req.CartID, req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to open checkout", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sessionView(session))
}

func (h *Handler) getCheckout(c *gin.Context) {
	session, err := h.checkout.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

type identifyRequest struct {
	Contact string `json:"contact" binding:"required"`
}

func (h *Handler) identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.SubmitContact{Contact: req.Contact})
}

type authenticateRequest struct {
	Secret string `json:"secret" binding:"required"`
}

func (h *Handler) authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.SubmitCredential{Secret: req.Secret})
}

type registerRequest struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact"`
	Secret  string `json:"secret" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.SubmitRegistration{Name: req.Name, Contact: req.Contact, Secret: req.Secret})
}

type fulfillmentRequest struct {
	Type string `json:"type" binding:"required"`
}

func (h *Handler) chooseFulfillment(c *gin.Context) {
	var req fulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.ChooseFulfillment{Type: req.Type})
}

func (h *Handler) submitAddress(c *gin.Context) {
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.SubmitAddress{Address: addr})
}

type selectAddressRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

func (h *Handler) selectAddress(c *gin.Context) {
	var req selectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.SelectAddress{AddressID: req.AddressID})
}

func (h *Handler) confirmPickup(c *gin.Context) {
	h.applyEvent(c, checkout.ConfirmPickup{})
}

type paymentRequest struct {
	Method   string `json:"method" binding:"required"`
	Tendered int64  `json:"tendered"`
}

func (h *Handler) submitPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	h.applyEvent(c, checkout.SubmitPayment{Method: req.Method, Tendered: req.Tendered})
}

func (h *Handler) goBack(c *gin.Context) {
	h.applyEvent(c, checkout.GoBack{})
}

func (h *Handler) cancelCheckout(c *gin.Context) {
	h.applyEvent(c, checkout.Cancel{})
}

// applyEvent routes one state machine event and maps the error taxonomy
// to HTTP statuses: validation 422, credential mismatch 401, busy 409,
// collaborator failures 502 with a retryable hint.
func (h *Handler) applyEvent(c *gin.Context, ev checkout.Event) {
	session, err := h.checkout.Apply(c.Request.Context(), c.Param("id"), ev)
	if err != nil {
		h.renderCheckoutError(c, session, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

func (h *Handler) renderCheckoutError(c *gin.Context, session *checkout.Session, err error) {
	var vErr *checkout.ValidationError
	var sErr *checkout.SubmitError
	var cErr *checkout.CollaboratorError

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "An operation is already in flight", "retryable": true})
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vErr.Message, "field": vErr.Field, "state": stateOf(session)})
	case errors.Is(err, checkout.ErrCredentialMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credential does not match", "state": stateOf(session)})
	case errors.Is(err, checkout.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": stateOf(session)})
	case errors.As(err, &sErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Order submission failed", "retryable": sErr.Retryable(), "state": stateOf(session)})
	case errors.As(err, &cErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Service temporarily unavailable", "retryable": true, "state": stateOf(session)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.store.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "details": err.Error()})
		return
	}

	items, err := h.store.GetOrderItemsByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order items", "details": err.Error()})
		return
	}

	payments, err := h.store.GetOrderPaymentsByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order payments", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "items": items, "payments": payments})
}

func cartView(crt *cart.Cart) gin.H {
	return gin.H{
		"id":         crt.ID,
		"items":      crt.Items(),
		"total":      crt.Total(),
		"item_count": crt.ItemCount(),
	}
}

func sessionView(s *checkout.Session) gin.H {
	view := gin.H{
		"id":               s.ID,
		"state":            s.State,
		"business_id":      s.BusinessID,
		"fulfillment_type": s.FulfillmentType,
		"addresses":        s.Addresses,
		"cart_total":       s.Cart.Total(),
	}
	if s.Identity != nil {
		view["identity"] = s.Identity
	}
	if addr := s.SelectedAddress(); addr != nil {
		view["selected_address"] = addr
	}
	if s.State == checkout.StateFinalized {
		view["order_id"] = s.OrderID
		view["payment_method"] = s.PaymentMethod
		view["change"] = s.Change
	}
	return view
}

func stateOf(s *checkout.Session) checkout.State {
	if s == nil {
		return ""
	}
	return s.State
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
