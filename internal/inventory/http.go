package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type stockLevel struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
}

// RegisterRoutes mounts the read-only inventory endpoints.
func RegisterRoutes(r gin.IRouter, store *Store) {
	group := r.Group("/api/inventory")
	group.GET("", listStock(store))
	group.GET("/:productId", getStock(store))
}

func listStock(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

func getStock(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("productId")
		c.JSON(http.StatusOK, stockLevel{ProductID: productID, Available: store.Available(productID)})
	}
}
