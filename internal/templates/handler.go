package templates

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docscan-backend/internal/shared/server/middleware"
	"docscan-backend/internal/shared/server/respond"
)

// Handler exposes the read-only template registry over HTTP.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches template routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.list)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	tpls, err := h.Repo.ListActive(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list templates", nil)
		return
	}

	resp := make([]gin.H, 0, len(tpls))
	for _, tpl := range tpls {
		resp = append(resp, gin.H{
			"id":          tpl.ID,
			"name":        tpl.Name,
			"description": tpl.Description,
			"fields":      tpl.Fields,
		})
	}
	respond.OK(c, resp)
}
