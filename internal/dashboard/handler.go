package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"legaldocs-backend/internal/documents"
	"legaldocs-backend/internal/shared/server/respond"
)

// Source lists the documents the dashboard aggregates.
type Source interface {
	List(ctx context.Context, filter documents.ListFilter) ([]documents.Document, error)
}

// Handler serves the analytics view.
type Handler struct {
	Docs Source
	Now  func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(docs Source) *Handler {
	return &Handler{Docs: docs, Now: time.Now}
}

// Response is the analytics payload.
type Response struct {
	Dashboard
	Charts []Chart `json:"charts"`
}

// RegisterRoutes attaches analytics routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analytics", h.get)
}

func (h *Handler) get(c *gin.Context) {
	docs, err := h.Docs.List(c.Request.Context(), documents.ListFilter{})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load documents", nil)
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	d := Build(docs, now())
	respond.OK(c, Response{Dashboard: d, Charts: d.Charts()})
}
