package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/telemetra/fleetquery/internal/model"
	"github.com/telemetra/fleetquery/internal/pkg/errcode"
	"github.com/telemetra/fleetquery/internal/pkg/response"
	"github.com/telemetra/fleetquery/internal/service"
)

type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
}

func NewKnowledgeHandler(knowledge *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

type knowledgeRequest struct {
	DocType  string            `json:"doc_type"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Pinned   bool              `json:"pinned"`
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	docs, err := h.knowledge.List(c.Request.Context(), model.DocType(c.Query("doc_type")))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *KnowledgeHandler) Create(c *gin.Context) {
	var req knowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	doc, err := h.knowledge.Create(c.Request.Context(), service.CreateDocumentRequest{
		DocType:  model.DocType(req.DocType),
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
		Pinned:   req.Pinned,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *KnowledgeHandler) Update(c *gin.Context) {
	var req knowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	doc, err := h.knowledge.Update(c.Request.Context(), c.Param("id"), req.Title, req.Content, req.Metadata)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	if err := h.knowledge.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

func (h *KnowledgeHandler) Pin(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if err := h.knowledge.SetPinned(c.Request.Context(), c.Param("id"), req.Pinned); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func (h *KnowledgeHandler) Reseed(c *gin.Context) {
	count, err := h.knowledge.Reseed(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"seeded": count})
}
