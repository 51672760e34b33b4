package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-system/pkg/auth"
	"library-system/pkg/database"
	"library-system/pkg/models"
)

func setupServer(t *testing.T) (*gin.Engine, *Handler, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	handler := New(db)
	r := gin.New()
	handler.RegisterRoutes(r)
	return r, handler, db
}

func sessionCookie(t *testing.T, h *Handler, username, password, role string) *http.Cookie {
	_, err := h.Auth().CreateUser(username, password, role)
	assert.NoError(t, err)
	session, err := h.Auth().Login(username, password)
	assert.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: session.Token}
}

func doJSON(r *gin.Engine, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		buf = bytes.NewBuffer(jsonBody)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	r, _, _ := setupServer(t)

	w := doJSON(r, "GET", "/manage/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", decodeBody(t, w)["status"])
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	r, _, _ := setupServer(t)

	w := doJSON(r, "POST", "/register", gin.H{
		"username": "alice",
		"password": "secret123",
		"confirm":  "secret123",
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/login", gin.H{"username": "alice", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	assert.Equal(t, 1, len(cookies))
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	cookie := cookies[0]

	w = doJSON(r, "GET", "/books", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", "/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, "GET", "/books", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidationOverHTTP(t *testing.T) {
	r, _, _ := setupServer(t)

	w := doJSON(r, "POST", "/register", gin.H{
		"username": "alice",
		"password": "short",
		"confirm":  "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 0; i < 2; i++ {
		w = doJSON(r, "POST", "/register", gin.H{
			"username": "bob",
			"password": "secret123",
			"confirm":  "secret123",
		}, nil)
	}
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPasswordOverHTTP(t *testing.T) {
	r, h, _ := setupServer(t)
	_, err := h.Auth().CreateUser("alice", "secret123", models.RoleUser)
	assert.NoError(t, err)

	w := doJSON(r, "POST", "/login", gin.H{"username": "alice", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBooksRequireAuth(t *testing.T) {
	r, _, _ := setupServer(t)

	w := doJSON(r, "GET", "/books", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIMirrorsShareAccessControl(t *testing.T) {
	r, h, _ := setupServer(t)

	// No unauthenticated path into the REST mirrors.
	w := doJSON(r, "GET", "/api/books", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, "GET", "/api/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := sessionCookie(t, h, "alice", "secret123", models.RoleUser)
	w = doJSON(r, "GET", "/api/books", nil, user)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", "/api/books", gin.H{"title": "Dune", "author": "Frank Herbert"}, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, "GET", "/api/users", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookLifecycleAsAdmin(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)

	w := doJSON(r, "GET", "/books/create", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", "/books", gin.H{
		"title":  "Dune",
		"author": "Frank Herbert",
		"isbn":   "978-0441172719",
	}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)
	bookUid := decodeBody(t, w)["bookUid"].(string)

	w = doJSON(r, "GET", "/books/"+bookUid, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "available", decodeBody(t, w)["status"])

	w = doJSON(r, "GET", "/books/"+bookUid+"/edit", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "PUT", "/books/"+bookUid, gin.H{
		"title":  "Dune (Revised)",
		"author": "Frank Herbert",
	}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dune (Revised)", decodeBody(t, w)["title"])

	w = doJSON(r, "GET", "/books?q=revised", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["totalElements"])

	w = doJSON(r, "POST", "/books/"+bookUid+"/delete", nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, "GET", "/books/"+bookUid, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookMutationForbiddenForUser(t *testing.T) {
	r, h, _ := setupServer(t)
	user := sessionCookie(t, h, "alice", "secret123", models.RoleUser)

	w := doJSON(r, "POST", "/books", gin.H{"title": "Dune", "author": "Frank Herbert"}, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, "GET", "/books/create", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func createBookOverHTTP(t *testing.T, r *gin.Engine, admin *http.Cookie, title string) string {
	w := doJSON(r, "POST", "/books", gin.H{"title": title, "author": "Frank Herbert"}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)
	return decodeBody(t, w)["bookUid"].(string)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	alice := sessionCookie(t, h, "alice", "secret123", models.RoleUser)
	bob := sessionCookie(t, h, "bob", "secret123", models.RoleUser)

	bookUid := createBookOverHTTP(t, r, admin, "Dune")

	// A non-admin cannot borrow on someone else's behalf.
	w := doJSON(r, "POST", "/loans", gin.H{"bookUid": bookUid, "borrower": "bob"}, alice)
	assert.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	assert.Equal(t, "alice", created["borrower"])
	loanUid := created["loanUid"].(string)

	w = doJSON(r, "GET", "/books/"+bookUid, nil, alice)
	assert.Equal(t, "loaned", decodeBody(t, w)["status"])

	w = doJSON(r, "POST", "/loans", gin.H{"bookUid": bookUid}, bob)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, "POST", "/loans/"+loanUid+"/return", nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, "GET", "/my/loans", nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["totalElements"])

	w = doJSON(r, "POST", "/loans/"+loanUid+"/return", nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeBody(t, w)["returnedAt"])

	w = doJSON(r, "GET", "/books/"+bookUid, nil, alice)
	assert.Equal(t, "available", decodeBody(t, w)["status"])

	w = doJSON(r, "POST", "/loans/"+loanUid+"/return", nil, alice)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminCreatesLoanForNamedBorrower(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	bookUid := createBookOverHTTP(t, r, admin, "Dune")

	w := doJSON(r, "POST", "/loans", gin.H{"bookUid": bookUid, "borrower": "carol"}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "carol", decodeBody(t, w)["borrower"])

	// And a missing borrower is a validation error for admins.
	other := createBookOverHTTP(t, r, admin, "Foundation")
	w = doJSON(r, "POST", "/loans", gin.H{"bookUid": other}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoanBadDueDate(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	bookUid := createBookOverHTTP(t, r, admin, "Dune")

	w := doJSON(r, "POST", "/loans", gin.H{
		"bookUid":  bookUid,
		"borrower": "carol",
		"dueDate":  "not-a-date",
	}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLoanFormListsAvailableBooks(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	createBookOverHTTP(t, r, admin, "Dune")
	bookUid := createBookOverHTTP(t, r, admin, "Foundation")

	w := doJSON(r, "POST", "/loans", gin.H{"bookUid": bookUid, "borrower": "carol"}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "GET", "/loans/create", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	available := decodeBody(t, w)["availableBooks"].([]interface{})
	assert.Equal(t, 1, len(available))
}

func TestUpdateBookCannotTouchStatus(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	bookUid := createBookOverHTTP(t, r, admin, "Dune")

	w := doJSON(r, "POST", "/loans", gin.H{"bookUid": bookUid, "borrower": "carol"}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)

	// A status field in the payload is ignored; the book stays loaned.
	w = doJSON(r, "PUT", "/books/"+bookUid, gin.H{
		"title":  "Dune",
		"author": "Frank Herbert",
		"status": "available",
	}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "loaned", decodeBody(t, w)["status"])
}

func TestAdminDashboardRoute(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	user := sessionCookie(t, h, "alice", "secret123", models.RoleUser)

	w := doJSON(r, "GET", "/admin/dashboard", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	bookUid := createBookOverHTTP(t, r, admin, "Dune")
	w = doJSON(r, "POST", "/loans", gin.H{"bookUid": bookUid}, user)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "GET", "/admin/dashboard", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["users"])
	assert.Equal(t, float64(1), body["books"])
	assert.Equal(t, float64(1), body["activeLoans"])
	assert.Equal(t, 6, len(body["loansByMonth"].([]interface{})))
}

func TestUsersAdminCRUD(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)

	w := doJSON(r, "POST", "/api/users", gin.H{
		"username": "carol",
		"password": "secret123",
		"role":     "user",
	}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)
	userUid := decodeBody(t, w)["userUid"].(string)

	w = doJSON(r, "GET", "/api/users", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["totalElements"])

	w = doJSON(r, "GET", "/api/users/"+userUid, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "carol", decodeBody(t, w)["username"])

	w = doJSON(r, "PUT", "/api/users/"+userUid, gin.H{"role": "admin"}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", decodeBody(t, w)["role"])

	w = doJSON(r, "DELETE", "/api/users/"+userUid, nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, "GET", "/api/users/"+userUid, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaginationClampOverHTTP(t *testing.T) {
	r, h, _ := setupServer(t)
	admin := sessionCookie(t, h, "root", "secret123", models.RoleAdmin)
	createBookOverHTTP(t, r, admin, "Dune")

	w := doJSON(r, "GET", "/books?page=0", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["page"])

	w = doJSON(r, "GET", "/books?page=99", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, 0, len(body["items"].([]interface{})))
	assert.Equal(t, float64(1), body["totalPages"])
}
