package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-system/pkg/auth"
	"library-system/pkg/loans"
)

func (h *Handler) listLoans(c *gin.Context) {
	result, err := h.loans.List(pageParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanPageJSON(result))
}

func (h *Handler) listMyLoans(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	result, err := h.loans.ListForBorrower(identity.Username, pageParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanPageJSON(result))
}

func (h *Handler) createLoan(c *gin.Context) {
	var request struct {
		BookUid  string `json:"bookUid" binding:"required"`
		Borrower string `json:"borrower"`
		DueDate  string `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var dueDate time.Time
	if request.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", request.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format"})
			return
		}
		dueDate = parsed
	}

	identity := auth.CurrentIdentity(c)
	loan, err := h.loans.Create(request.BookUid, request.Borrower, dueDate, identity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, loanJSON(loan))
}

func (h *Handler) returnLoan(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	loan, err := h.loans.Return(c.Param("loanUid"), identity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanJSON(loan))
}

func loanPageJSON(page *loans.Page) gin.H {
	items := make([]gin.H, len(page.Items))
	for i := range page.Items {
		items[i] = loanJSON(&page.Items[i])
	}
	return gin.H{
		"page":          page.Page,
		"pageSize":      page.PageSize,
		"totalElements": page.TotalElements,
		"totalPages":    page.TotalPages,
		"items":         items,
	}
}
