package loans

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

	r.POST("/loans", h.Checkout)
	r.POST("/loans/:loan_id/return", h.Return)
	r.GET("/loans", h.List)
	r.GET("/loans/outstanding", h.ListOutstanding)
	r.GET("/loans/overdue", h.ListOverdue)
	r.GET("/loans/book/:book_id", h.ListByBook)
	r.GET("/loans/:loan_id", h.Get)
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Checkout(c.Request.Context(), req)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.Header("Location", "/loans/"+strconv.FormatInt(res.LoanID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Return(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}
	res, err := h.svc.Return(c.Request.Context(), id)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := loanID(c)
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

func (h *Handler) List(c *gin.Context) {
	f := LoanFilter{}
	if v := c.Query("book_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.BookID = &n
		}
	}
	if v := c.Query("patron_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.PatronID = &n
		}
	}
	if v := c.Query("status"); v != "" {
		st := Status(strings.ToUpper(v))
		f.Status = &st
	}
	p := Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	items, total, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) ListOutstanding(c *gin.Context) {
	items, err := h.svc.ListOutstanding(c.Request.Context())
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) ListOverdue(c *gin.Context) {
	items, err := h.svc.ListOverdue(c.Request.Context())
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) ListByBook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	items, err := h.svc.ListByBook(c.Request.Context(), id)
	if err != nil {
		httpx.RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func loanID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpx.ErrorBody(apierr.CodeInvalidArgument, "loan_id must be a number"))
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
