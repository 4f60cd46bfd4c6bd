package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	"github.com/amo-ladoja/neriah/internal/item/repository"
	"github.com/amo-ladoja/neriah/internal/item/usecase"

	"github.com/gin-gonic/gin"
)

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	itemUsecase usecase.ItemUsecase
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemUsecase usecase.ItemUsecase) *ItemHandler {
	return &ItemHandler{
		itemUsecase: itemUsecase,
	}
}

// SnoozeRequest represents the request body for snoozing an item
type SnoozeRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

// FeedbackRequest represents the request body for item feedback
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
	Comment  string `json:"comment"`
}

// GetItems returns the user's items with optional filters
// GET /api/items?status=pending&category=task&priority=high&limit=50&offset=0
func (h *ItemHandler) GetItems(c *gin.Context) {
	userID := c.GetString("userID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := repository.ItemFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Limit:    limit,
		Offset:   offset,
	}

	items, total, err := h.itemUsecase.List(userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

// GetItemByID returns a specific item
// GET /api/items/:id
func (h *ItemHandler) GetItemByID(c *gin.Context) {
	userID := c.GetString("userID")
	itemID := c.Param("id")

	item, err := h.itemUsecase.Get(userID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// CompleteItem marks an item completed
// POST /api/items/:id/complete
func (h *ItemHandler) CompleteItem(c *gin.Context) {
	userID := c.GetString("userID")
	itemID := c.Param("id")

	item, err := h.itemUsecase.Complete(userID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// SnoozeItem snoozes an item until the given time
// POST /api/items/:id/snooze
func (h *ItemHandler) SnoozeItem(c *gin.Context) {
	userID := c.GetString("userID")
	itemID := c.Param("id")

	var req SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemUsecase.Snooze(userID, itemID, req.Until)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem soft-deletes an item
// DELETE /api/items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID := c.GetString("userID")
	itemID := c.Param("id")

	item, err := h.itemUsecase.Delete(userID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// LeaveFeedback records thumbs-up/down on an item
// POST /api/items/:id/feedback
func (h *ItemHandler) LeaveFeedback(c *gin.Context) {
	userID := c.GetString("userID")
	itemID := c.Param("id")

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemUsecase.LeaveFeedback(userID, itemID, itemdomain.Feedback(req.Feedback), req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteAllItems wipes all items for the user (account reset)
// DELETE /api/items
func (h *ItemHandler) DeleteAllItems(c *gin.Context) {
	userID := c.GetString("userID")

	deleted, err := h.itemUsecase.DeleteAll(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// DownloadAttachment proxies one attachment of the item's source email
// GET /api/items/:id/attachments/:attachmentId
func (h *ItemHandler) DownloadAttachment(c *gin.Context) {
	userID := c.GetString("userID")
	itemID := c.Param("id")
	attachmentID := c.Param("attachmentId")

	attachment, err := h.itemUsecase.DownloadAttachment(c.Request.Context(), userID, itemID, attachmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+attachment.Filename+`"`)
	c.Data(http.StatusOK, attachment.MimeType, attachment.Data)
}

func (h *ItemHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case errors.Is(err, usecase.ErrNoGmailCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
