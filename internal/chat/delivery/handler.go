package delivery

import (
	"net/http"

	"github.com/amo-ladoja/neriah/internal/chat/usecase"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles chat query HTTP requests
type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatUsecase usecase.ChatUsecase) *ChatHandler {
	return &ChatHandler{
		chatUsecase: chatUsecase,
	}
}

// ChatRequest represents the request body for chat queries
type ChatRequest struct {
	Text string `json:"text" binding:"required"`
}

// Query answers a free-text lookup over the user's items
// POST /api/chat/query
func (h *ChatHandler) Query(c *gin.Context) {
	userID := c.GetString("userID")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatUsecase.Query(c.Request.Context(), userID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Calculate answers a spend question over the user's receipts
// POST /api/chat/calculate
func (h *ChatHandler) Calculate(c *gin.Context) {
	userID := c.GetString("userID")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatUsecase.Calculate(c.Request.Context(), userID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate totals"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
