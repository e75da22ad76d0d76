package programs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billyribeiro-ux/build-ops/internal/shared/server/middleware"
	"github.com/billyribeiro-ux/build-ops/internal/shared/server/respond"
)

// Handler serves program reads.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches program routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/programs/:id", h.get)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ProgramIDKey, id)
	p, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, p)
}
