package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-system/pkg/auth"
)

// The view layer is server-rendered elsewhere; the GET form routes
// return the data a form would be built from.

func (h *Handler) registerForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"username", "password", "confirm"}})
}

func (h *Handler) loginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"username", "password"}})
}

func (h *Handler) register(c *gin.Context) {
	var request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := h.auth.Register(request.Username, request.Password, request.Confirm)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userJSON(user))
}

func (h *Handler) login(c *gin.Context) {
	var request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, err := h.auth.Login(request.Username, request.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.SetCookie(auth.CookieName, session.Token, int(auth.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"username": session.Username,
		"role":     session.Role,
	})
}

func (h *Handler) logout(c *gin.Context) {
	token, err := c.Cookie(auth.CookieName)
	if err == nil {
		if err := h.auth.Logout(token); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
