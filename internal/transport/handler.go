package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"kantinku-be/internal/counts"
	"kantinku-be/internal/middleware"
	"kantinku-be/internal/order"
	"kantinku-be/internal/realtime"
	"kantinku-be/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	orders order.Service
	counts *counts.Service
	hub    *realtime.Hub
	users  user.Service
}

func NewHandler(
	orders order.Service,
	countsSvc *counts.Service,
	hub *realtime.Hub,
	users user.Service,
) *Handler {
	return &Handler{
		orders: orders,
		counts: countsSvc,
		hub:    hub,
		users:  users,
	}
}

// writeDomainError maps domain errors onto status codes. "Not currently
// valid" (409) stays distinguishable from "try again" (503) for the UI.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, order.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "this order is already finished"})
	case errors.Is(err, order.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "this status change is not currently valid, refresh and try again"})
	case errors.Is(err, order.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cancellation requires a reason"})
	case errors.Is(err, order.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not allowed to perform this action"})
	case errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "something went wrong, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           u.ID,
			"email":        u.Email,
			"display_name": u.DisplayName,
			"role":         u.Role,
			"cafeteria_id": u.CafeteriaID,
		},
	})
}

type placeOrderRequest struct {
	CafeteriaID uint             `json:"cafeteria_id" binding:"required"`
	PickupTime  *time.Time       `json:"pickup_time"`
	Items       []placeOrderItem `json:"items" binding:"required"`
}

type placeOrderItem struct {
	MenuItemID uint    `json:"menu_item_id" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required"`
	UnitPrice  int     `json:"unit_price"`
	Notes      *string `json:"notes"`
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	items := make([]order.PlaceItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.PlaceItemInput{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Notes:      it.Notes,
		})
	}

	o, err := h.orders.Place(c.Request.Context(), order.PlaceInput{
		CafeteriaID: req.CafeteriaID,
		CustomerID:  actor.ID,
		PickupTime:  req.PickupTime,
		Items:       items,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) ListByStatus(c *gin.Context) {
	cafeteriaID, err := parseCafeteriaID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafeteria id"})
		return
	}

	status, err := order.ParseStatus(c.Query("status"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 32)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	orders, err := h.orders.ListByStatus(c.Request.Context(), cafeteriaID, status, int32(limit))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (h *Handler) GetDetail(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	detail, err := h.orders.GetDetail(c.Request.Context(), orderID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDetailResponse(detail, time.Now()))
}

type transitionRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason"`
}

func (h *Handler) Transition(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	o, err := h.orders.Transition(c.Request.Context(), orderID, order.TransitionRequest{
		Target: target,
		Reason: req.Reason,
		Actor:  actor,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) GetCounts(c *gin.Context) {
	cafeteriaID, err := parseCafeteriaID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafeteria id"})
		return
	}

	snap, err := h.counts.GetCounts(c.Request.Context(), cafeteriaID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *Handler) RefreshCache(c *gin.Context) {
	h.counts.InvalidateAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// Events upgrades to a websocket and streams change pings for the cafeteria.
func (h *Handler) Events(c *gin.Context) {
	cafeteriaID, err := parseCafeteriaID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafeteria id"})
		return
	}

	realtime.ServeWS(h.hub, cafeteriaID, c.Writer, c.Request)
}

func parseCafeteriaID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
