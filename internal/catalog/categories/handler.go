package categories

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/categories", h.List)
	r.GET("/categories/:category_id", h.Get)
	r.POST("/categories", h.Create)
	r.PUT("/categories/:category_id", h.Update)
	r.DELETE("/categories/:category_id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": len(res)})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("category_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "category_id must be a number"))
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
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Header("Location", "/categories/"+strconv.FormatInt(res.CategoryID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("category_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "category_id must be a number"))
		return
	}
	var req UpdateCategoryRequest
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

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("category_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "category_id must be a number"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
