package imports

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/billyribeiro-ux/build-ops/internal/extract"
	"github.com/billyribeiro-ux/build-ops/internal/plan"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/queue"
	"github.com/billyribeiro-ux/build-ops/internal/shared/server/middleware"
	"github.com/billyribeiro-ux/build-ops/internal/shared/server/respond"
	"github.com/billyribeiro-ux/build-ops/internal/shared/storage/object"
)

const (
	maxUploadSize   = 50 << 20 // 50MB across all parts
	uploadNamespace = "imports"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches import routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/imports", h.submit)
	rg.POST("/imports/upload", h.upload)
	rg.GET("/imports", h.list)
	rg.GET("/imports/:id", h.get)
	rg.GET("/imports/:id/preview", h.preview)
	rg.PUT("/imports/:id/review", h.review)
	rg.POST("/imports/:id/apply", h.apply)
	rg.POST("/imports/:id/cancel", h.cancel)
	rg.DELETE("/imports/:id", h.delete)
}

type submitRequest struct {
	Files     []string `json:"files"`
	ProgramID *string  `json:"program_id"`
}

func (h *Handler) submit(c *gin.Context) {
	if h.Svc.ImportRoot == "" {
		respond.Error(c, http.StatusForbidden, "forbidden", "path imports are disabled, use /imports/upload", nil)
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation", "invalid request body", nil)
		return
	}
	job, err := h.Svc.Submit(requestContext(c), req.Files, req.ProgramID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(middleware.ImportIDKey, job.ID)
	respond.JSON(c, http.StatusAccepted, job)
}

func (h *Handler) upload(c *gin.Context) {
	if h.Svc.Store == nil {
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "uploads are not configured", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation", "multipart form is required", nil)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation", "at least one file is required", nil)
		return
	}
	for _, fh := range headers {
		if !extract.Supported(fh.Filename) {
			respond.Error(c, http.StatusBadRequest, "validation", "unsupported file type: "+fh.Filename, nil)
			return
		}
	}

	objs := make([]object.Object, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation", "unable to read file", nil)
			return
		}
		obj, err := h.Svc.Store.Save(c.Request.Context(), uploadNamespace, fh.Filename, f)
		f.Close()
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "io", "failed to store upload", nil)
			return
		}
		objs = append(objs, obj)
	}

	var programID *string
	if v := strings.TrimSpace(c.PostForm("program_id")); v != "" {
		programID = &v
	}
	job, err := h.Svc.SubmitObjects(requestContext(c), objs, programID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(middleware.ImportIDKey, job.ID)
	respond.JSON(c, http.StatusAccepted, job)
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": out})
}

func (h *Handler) get(c *gin.Context) {
	id := h.importID(c)
	job, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) preview(c *gin.Context) {
	p, err := h.Svc.Preview(c.Request.Context(), h.importID(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) review(c *gin.Context) {
	id := h.importID(c)
	var p plan.GeneratedPlan
	if err := c.ShouldBindJSON(&p); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation", "invalid plan body", nil)
		return
	}
	job, err := h.Svc.Review(c.Request.Context(), id, p)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, job)
}

type applyResponse struct {
	Import  ImportJob        `json:"import"`
	Program programs.Program `json:"program"`
}

func (h *Handler) apply(c *gin.Context) {
	job, prog, err := h.Svc.Apply(c.Request.Context(), h.importID(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(middleware.ProgramIDKey, prog.ID)
	c.Set(middleware.StatusTransitionKey, string(StatusReviewing)+"->"+string(job.Status))
	respond.OK(c, applyResponse{Import: job, Program: prog})
}

func (h *Handler) cancel(c *gin.Context) {
	job, err := h.Svc.Cancel(c.Request.Context(), h.importID(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), h.importID(c)); err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requestContext tags the request context with the request id so queued work
// can be traced back to the submission.
func requestContext(c *gin.Context) context.Context {
	return queue.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func (h *Handler) importID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.ImportIDKey, id)
	return id
}
