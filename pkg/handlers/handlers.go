package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"library-system/pkg/auth"
	"library-system/pkg/books"
	"library-system/pkg/dashboard"
	"library-system/pkg/loans"
	"library-system/pkg/models"
)

// Handler holds the request-facing services. Everything is constructed
// and injected at startup; there is no package-level state.
type Handler struct {
	db        *gorm.DB
	auth      *auth.Service
	catalog   *books.Catalog
	loans     *loans.Manager
	dashboard *dashboard.Service
}

func New(db *gorm.DB) *Handler {
	return &Handler{
		db:        db,
		auth:      auth.NewService(db),
		catalog:   books.NewCatalog(db),
		loans:     loans.NewManager(db),
		dashboard: dashboard.NewService(db),
	}
}

// Auth exposes the auth service for startup tasks (admin seeding,
// session purge).
func (h *Handler) Auth() *auth.Service {
	return h.auth
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/manage/health", h.healthCheck)

	r.GET("/register", h.registerForm)
	r.POST("/register", h.register)
	r.GET("/login", h.loginForm)
	r.POST("/login", h.login)

	authed := r.Group("", h.auth.RequireAuth())
	{
		authed.POST("/logout", h.logout)

		authed.GET("/books", h.searchBooks)
		authed.GET("/books/:bookUid", h.getBook)

		authed.GET("/loans", h.listLoans)
		authed.POST("/loans", h.createLoan)
		authed.POST("/loans/:loanUid/return", h.returnLoan)
		authed.GET("/my/loans", h.listMyLoans)

		authed.GET("/api/books", h.searchBooks)
		authed.GET("/api/books/:bookUid", h.getBook)
	}

	admin := r.Group("", h.auth.RequireAuth(), h.auth.RequireAdmin())
	{
		admin.GET("/books/create", h.createBookForm)
		admin.POST("/books", h.createBook)
		admin.GET("/books/:bookUid/edit", h.editBookForm)
		admin.PUT("/books/:bookUid", h.updateBook)
		admin.POST("/books/:bookUid/delete", h.deleteBook)

		admin.GET("/loans/create", h.createLoanForm)
		admin.GET("/admin/dashboard", h.adminDashboard)

		admin.POST("/api/books", h.createBook)
		admin.PUT("/api/books/:bookUid", h.updateBook)
		admin.DELETE("/api/books/:bookUid", h.deleteBook)

		admin.GET("/api/users", h.listUsers)
		admin.POST("/api/users", h.createUser)
		admin.GET("/api/users/:userUid", h.getUser)
		admin.PUT("/api/users/:userUid", h.updateUser)
		admin.DELETE("/api/users/:userUid", h.deleteUser)
	}
}

// fail maps service errors onto HTTP statuses. Anything outside the
// known taxonomy is a 500 with a logged cause and a generic body.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, loans.ErrBookNotFound),
		errors.Is(err, loans.ErrLoanNotFound),
		errors.Is(err, books.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, loans.ErrBookNotAvailable),
		errors.Is(err, loans.ErrAlreadyReturned),
		errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, loans.ErrNotLoanOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, loans.ErrBorrowerRequired),
		errors.Is(err, books.ErrTitleRequired),
		errors.Is(err, books.ErrAuthorRequired),
		errors.Is(err, books.ErrBadStatus),
		errors.Is(err, auth.ErrUsernameRequired),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrBadRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return page
}

func bookJSON(book *models.Book) gin.H {
	return gin.H{
		"bookUid": book.BookUid,
		"title":   book.Title,
		"author":  book.Author,
		"isbn":    book.ISBN,
		"status":  book.Status,
	}
}

func loanJSON(loan *models.Loan) gin.H {
	item := gin.H{
		"loanUid":    loan.LoanUid,
		"borrower":   loan.Borrower,
		"loanedAt":   loan.LoanedAt.Format("2006-01-02"),
		"dueDate":    loan.DueDate.Format("2006-01-02"),
		"returnedAt": nil,
		"book":       bookJSON(&loan.Book),
	}
	if loan.ReturnedAt != nil {
		item["returnedAt"] = loan.ReturnedAt.Format("2006-01-02")
	}
	return item
}

func userJSON(user *models.User) gin.H {
	return gin.H{
		"userUid":  user.UserUid,
		"username": user.Username,
		"role":     user.Role,
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) adminDashboard(c *gin.Context) {
	stats, err := h.dashboard.Collect()
	if err != nil {
		h.fail(c, err)
		return
	}

	topBorrowers := make([]gin.H, len(stats.TopBorrowers))
	for i, b := range stats.TopBorrowers {
		topBorrowers[i] = gin.H{"borrower": b.Borrower, "loans": b.Loans}
	}
	loansByMonth := make([]gin.H, len(stats.LoansByMonth))
	for i, m := range stats.LoansByMonth {
		loansByMonth[i] = gin.H{"month": m.Month, "loans": m.Loans}
	}

	c.JSON(http.StatusOK, gin.H{
		"users":        stats.Users,
		"books":        stats.Books,
		"activeLoans":  stats.ActiveLoans,
		"dueSoon":      stats.DueSoon,
		"topBorrowers": topBorrowers,
		"loansByMonth": loansByMonth,
	})
}
