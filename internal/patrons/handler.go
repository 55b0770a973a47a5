package patrons

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/patrons", h.List)
	r.GET("/patrons/:patron_id", h.Get)
	r.POST("/patrons", h.Create)
	r.PUT("/patrons/:patron_id", h.Update)
	r.POST("/patrons/:patron_id/activate", h.Activate)
	r.POST("/patrons/:patron_id/deactivate", h.Deactivate)
	r.DELETE("/patrons/:patron_id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	f := PatronFilter{Term: c.Query("q")}
	if v := c.Query("active"); v == "true" || v == "1" {
		f.OnlyActive = true
	}
	p := Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  strings.ToLower(c.DefaultQuery("order", "asc")),
	}
	items, total, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := patronID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePatronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Header("Location", "/patrons/"+strconv.FormatInt(res.PatronID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := patronID(c)
	if !ok {
		return
	}
	var req UpdatePatronRequest
	if err := httpx.BindStrict(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "invalid json or unknown field"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Activate(c *gin.Context) {
	id, ok := patronID(c)
	if !ok {
		return
	}
	res, err := h.svc.Activate(c.Request.Context(), id)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := patronID(c)
	if !ok {
		return
	}
	res, err := h.svc.Deactivate(c.Request.Context(), id)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := patronID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func patronID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("patron_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "patron_id must be a number"))
		return 0, false
	}
	return id, true
}

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
