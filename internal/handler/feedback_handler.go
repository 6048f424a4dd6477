package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/telemetra/fleetquery/internal/pkg/errcode"
	"github.com/telemetra/fleetquery/internal/pkg/response"
	"github.com/telemetra/fleetquery/internal/service"
)

type FeedbackHandler struct {
	feedback *service.FeedbackService
}

func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

type feedbackRequest struct {
	UserID            string `json:"user_id"`
	Timestamp         int64  `json:"timestamp"`
	Rating            string `json:"rating"`
	Question          string `json:"question"`
	SQL               string `json:"sql"`
	VisualizationType string `json:"visualization_type"`
	Comment           string `json:"comment"`
}

func (h *FeedbackHandler) Record(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if req.UserID == "" || req.Timestamp == 0 {
		response.Error(c, errcode.ErrInvalid, "user_id and timestamp are required")
		return
	}
	indexed, err := h.feedback.Record(c.Request.Context(), service.FeedbackRequest{
		UserID:            req.UserID,
		Timestamp:         req.Timestamp,
		Rating:            req.Rating,
		Question:          req.Question,
		SQL:               req.SQL,
		VisualizationType: req.VisualizationType,
		Comment:           req.Comment,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true, "indexed": indexed})
}

func (h *FeedbackHandler) ListNegative(c *gin.Context) {
	records, err := h.feedback.ListNegative(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"records": records})
}

type deleteFeedbackRequest struct {
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	var req deleteFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if req.UserID == "" || req.Timestamp == 0 {
		response.Error(c, errcode.ErrInvalid, "user_id and timestamp are required")
		return
	}
	if err := h.feedback.Delete(c.Request.Context(), req.UserID, req.Timestamp); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
