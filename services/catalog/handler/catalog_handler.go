package handler

import (
	"context"
	"net/http"

	"auction-backend/internal/auctionerrors"
	"auction-backend/internal/catalog"
	model "auction-backend/internal/models"
	"auction-backend/services/helpers"
	"auction-backend/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=catalog_handler.go -destination=mock_catalog_handler.go -package=handler

type CatalogServiceInterface interface {
	Create(ctx context.Context, in catalog.ItemInput) (model.AuctionItem, error)
	Get(ctx context.Context, itemID string) (model.AuctionItem, error)
	List(ctx context.Context) ([]model.AuctionItem, error)
	Update(ctx context.Context, itemID string, in catalog.ItemInput) (model.AuctionItem, error)
	Delete(ctx context.Context, itemID string) error
}

type CatalogHandler struct {
	service CatalogServiceInterface
	clock   utils.Clock
}

func NewCatalogHandler(service CatalogServiceInterface, clock utils.Clock) *CatalogHandler {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &CatalogHandler{service: service, clock: clock}
}

// bindItem reads an item body. It reports false after writing the error response.
func bindItem(c *gin.Context, handlerName string) (catalog.ItemInput, bool) {
	var req helpers.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, handlerName, err)
		return catalog.ItemInput{}, false
	}

	start, err := utils.ParseTimestamp(req.AuctionStartTime)
	if err != nil {
		helpers.RespondError(c, handlerName, auctionerrors.Validationf("auction_start_time: %v", err), nil)
		return catalog.ItemInput{}, false
	}

	return catalog.ItemInput{
		Name:             req.Name,
		Description:      req.Description,
		StartingPrice:    req.StartingPrice,
		AuctionStartTime: start,
		DurationMinutes:  req.DurationMinutes,
	}, true
}

// CreateItemHandler handles POST /items
func (h *CatalogHandler) CreateItemHandler(c *gin.Context) {
	in, ok := bindItem(c, "CreateItemHandler")
	if !ok {
		return
	}

	item, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		helpers.RespondError(c, "CreateItemHandler", err, map[string]any{"name": in.Name})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewItemResponse(item, h.clock.Now()), "item created successfully")
	helpers.LogSuccess("CreateItemHandler", "item created successfully", map[string]any{
		"item_id":  item.ItemID,
		"name":     item.Name,
		"duration": item.DurationMinutes,
	})
}

// ListItemsHandler handles GET /items
func (h *CatalogHandler) ListItemsHandler(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListItemsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponses(items, h.clock.Now()), "items retrieved successfully")
}

// GetItemHandler handles GET /items/:item_id
func (h *CatalogHandler) GetItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	item, err := h.service.Get(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondError(c, "GetItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item, h.clock.Now()), "item retrieved successfully")
}

// UpdateItemHandler handles PUT /items/:item_id
func (h *CatalogHandler) UpdateItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	in, ok := bindItem(c, "UpdateItemHandler")
	if !ok {
		return
	}

	item, err := h.service.Update(c.Request.Context(), itemID, in)
	if err != nil {
		helpers.RespondError(c, "UpdateItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item, h.clock.Now()), "item updated successfully")
	helpers.LogSuccess("UpdateItemHandler", "item updated successfully", map[string]any{"item_id": itemID})
}

// DeleteItemHandler handles DELETE /items/:item_id
func (h *CatalogHandler) DeleteItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	if err := h.service.Delete(c.Request.Context(), itemID); err != nil {
		helpers.RespondError(c, "DeleteItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"item_id": itemID}, "item deleted successfully")
	helpers.LogSuccess("DeleteItemHandler", "item deleted successfully", map[string]any{"item_id": itemID})
}
