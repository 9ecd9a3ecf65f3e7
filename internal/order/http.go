package order

import (
	"errors"
	"net/http"

	"github.com/pc7stha/ShopVerse/internal/events"
	"github.com/pc7stha/ShopVerse/internal/platform/httpserver"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderUserID carries the caller's id once the gateway has authenticated
// the request.
const HeaderUserID = "X-User-ID"

type createOrderItem struct {
	ProductID   string  `json:"productId" binding:"required"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity" binding:"gt=0"`
	UnitPrice   float64 `json:"unitPrice" binding:"gte=0"`
}

type createOrderRequest struct {
	Items []createOrderItem `json:"items" binding:"required,dive"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/api/orders")
	group.POST("", h.CreateOrder)
	group.GET("/:id", h.GetOrder)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]events.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = events.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	result, err := h.service.PlaceOrder(c.Request.Context(), PlaceOrderInput{
		UserID:        userID,
		CorrelationID: httpserver.CorrelationIDFrom(c),
		Items:         items,
	})
	switch {
	case errors.Is(err, ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order could not be placed, try again later"})
	default:
		c.JSON(http.StatusCreated, result)
	}
}

// GetOrder answers with a placeholder status since orders are not stored.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": id, "status": "Pending"})
}
