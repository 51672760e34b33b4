package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) searchBooks(c *gin.Context) {
	query := c.Query("q")
	status := c.Query("status")

	result, err := h.catalog.Search(query, status, pageParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]gin.H, len(result.Items))
	for i := range result.Items {
		items[i] = bookJSON(&result.Items[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          result.Page,
		"pageSize":      result.PageSize,
		"totalElements": result.TotalElements,
		"totalPages":    result.TotalPages,
		"items":         items,
	})
}

func (h *Handler) getBook(c *gin.Context) {
	book, err := h.catalog.Get(c.Param("bookUid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

func (h *Handler) createBookForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"title", "author", "isbn"}})
}

func (h *Handler) editBookForm(c *gin.Context) {
	book, err := h.catalog.Get(c.Param("bookUid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fields": []string{"title", "author", "isbn"},
		"book":   bookJSON(book),
	})
}

type bookRequest struct {
	Title  string `json:"title" binding:"required"`
	Author string `json:"author" binding:"required"`
	ISBN   string `json:"isbn"`
}

func (h *Handler) createBook(c *gin.Context) {
	var request bookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	book, err := h.catalog.Create(request.Title, request.Author, request.ISBN)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookJSON(book))
}

// updateBook rewrites title/author/isbn. Status is not accepted here;
// availability only changes through loan transitions.
func (h *Handler) updateBook(c *gin.Context) {
	var request bookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	book, err := h.catalog.Update(c.Param("bookUid"), request.Title, request.Author, request.ISBN)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

func (h *Handler) deleteBook(c *gin.Context) {
	if err := h.catalog.Delete(c.Param("bookUid")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createLoanForm(c *gin.Context) {
	available, err := h.catalog.ListAvailable()
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]gin.H, len(available))
	for i := range available {
		items[i] = bookJSON(&available[i])
	}
	c.JSON(http.StatusOK, gin.H{"availableBooks": items})
}
