package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/telemetra/fleetquery/internal/pkg/errcode"
	"github.com/telemetra/fleetquery/internal/pkg/response"
	"github.com/telemetra/fleetquery/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type askRequest struct {
	Question  string   `json:"question"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	DeviceIDs []string `json:"device_ids"`
}

func (h *ChatHandler) Query(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if req.Question == "" {
		response.Error(c, errcode.ErrInvalid, "question is required")
		return
	}
	if req.UserID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	result, err := h.chat.Ask(c.Request.Context(), service.AskRequest{
		Question:  req.Question,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		DeviceIDs: req.DeviceIDs,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ChatHandler) History(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.chat.History(c.Request.Context(), userID, c.Query("session_id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"records": records})
}
