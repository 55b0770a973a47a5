package books

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

	r.GET("/books", h.List)
	r.GET("/books/:book_id", h.Get)
	r.POST("/books", h.Create)
	r.PUT("/books/:book_id", h.Update)
	r.DELETE("/books/:book_id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	f := BookFilter{Term: c.Query("q")}
	if v := c.Query("author_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.AuthorID = &n
		}
	}
	if v := c.Query("category_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.CategoryID = &n
		}
	}
	if v := c.Query("available"); v == "true" || v == "1" {
		f.OnlyAvailable = true
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
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "next_offset": nextOffset(total, p)})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "book_id must be a number"))
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
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Header("Location", "/books/"+strconv.FormatInt(res.BookID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	var req UpdateBookRequest
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
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
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

func nextOffset(total int64, p Page) *int {
	next := p.Offset + p.Limit
	if int64(next) >= total {
		return nil
	}
	return &next
}
